package flow

import (
	"sync"

	"snapopedia-cli/internal/player"
	"snapopedia-cli/internal/session"
)

// CardNarrationID 卡片语音在 Narrator 中使用的 ID
const CardNarrationID = "card"

// Narrator 保证同一时间只播放一段讲解
// 开始播放新的讲解会停止并重置其他讲解
type Narrator struct {
	player  player.Player
	mu      sync.Mutex
	playing string
}

// NewNarrator 创建讲解播放协调器
func NewNarrator(p player.Player) *Narrator {
	n := &Narrator{player: p}
	p.OnFinish(func() {
		n.mu.Lock()
		n.playing = ""
		n.mu.Unlock()
	})
	return n
}

// Play 播放指定讲解
func (n *Narrator) Play(id, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.player.Stop()
	n.playing = ""
	if err := n.player.Play(url); err != nil {
		return err
	}
	n.playing = id
	return nil
}

// Toggle 正在播放则暂停，否则开始播放
// 返回操作后是否处于播放状态
func (n *Narrator) Toggle(id, url string) (bool, error) {
	n.mu.Lock()
	if n.playing == id && n.player.IsPlaying() {
		n.player.Stop()
		n.playing = ""
		n.mu.Unlock()
		return false, nil
	}
	n.mu.Unlock()

	if err := n.Play(id, url); err != nil {
		return false, err
	}
	return true, nil
}

// Stop 停止所有讲解
func (n *Narrator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.player.Stop()
	n.playing = ""
}

// Playing 当前播放的讲解 ID，未播放时为空
func (n *Narrator) Playing() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.playing != "" && !n.player.IsPlaying() {
		n.playing = ""
	}
	return n.playing
}

// PlayCardIfPending 卡片页打开时消费一次性的自动播放标记
// 无论播放是否成功，标记都会被清除
func (n *Narrator) PlayCardIfPending(store *session.Store) (bool, error) {
	snap := store.Snapshot()
	if !snap.AutoPlayAudio {
		return false, nil
	}
	var err error
	if snap.Card.HasNarration() {
		err = n.Play(CardNarrationID, snap.Card.AudioURL)
	}
	store.Set(session.WithAutoPlayAudio(false))
	return snap.Card.HasNarration(), err
}
