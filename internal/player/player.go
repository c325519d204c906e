// Package player 负责播放语音讲解
package player

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// ErrBlocked 播放被拒绝（例如没有可用的播放器）
var ErrBlocked = errors.New("playback blocked")

// Player 语音播放器接口
type Player interface {
	// Play 开始播放，立即返回；无法播放时返回错误
	Play(url string) error
	// Stop 停止并回到开头
	Stop() error
	// OnFinish 设置播放自然结束的回调
	OnFinish(handler func())
	// IsPlaying 检查是否正在播放
	IsPlaying() bool
}

// CommandPlayer 调用外部播放器进程（如 ffplay、mpv、afplay）
type CommandPlayer struct {
	command  string
	args     []string
	cmd      *exec.Cmd
	onFinish func()
	playing  bool
	mu       sync.Mutex
}

// NewCommandPlayer 创建外部播放器
// 地址会作为最后一个参数传给播放器
func NewCommandPlayer(command string, args ...string) *CommandPlayer {
	return &CommandPlayer{command: command, args: args}
}

// Play 启动播放器进程，正在播放的内容会先被停止
func (p *CommandPlayer) Play(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	if p.command == "" {
		return ErrBlocked
	}
	if _, err := exec.LookPath(p.command); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}

	args := append(append([]string{}, p.args...), url)
	cmd := exec.Command(p.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}

	p.cmd = cmd
	p.playing = true

	// 监控进程退出
	go p.wait(cmd)
	return nil
}

// Stop 结束播放器进程
func (p *CommandPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

// OnFinish 设置回调
func (p *CommandPlayer) OnFinish(handler func()) {
	p.mu.Lock()
	p.onFinish = handler
	p.mu.Unlock()
}

// IsPlaying 检查状态
func (p *CommandPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *CommandPlayer) stopLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.playing = false
}

func (p *CommandPlayer) wait(cmd *exec.Cmd) {
	cmd.Wait()

	p.mu.Lock()
	// 已经被 Stop 或新的播放替换时不回调
	if p.cmd != cmd {
		p.mu.Unlock()
		return
	}
	p.cmd = nil
	p.playing = false
	onFinish := p.onFinish
	p.mu.Unlock()

	if onFinish != nil {
		onFinish()
	}
}

// MockPlayer 模拟播放器（用于测试和没有播放器的环境）
type MockPlayer struct {
	Blocked  bool     // 为 true 时所有播放都会失败
	Played   []string // 每次成功开始播放的地址
	Attempts int      // 播放尝试次数
	onFinish func()
	playing  bool
	mu       sync.Mutex
}

// NewMockPlayer 创建模拟播放器
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play 记录播放
func (p *MockPlayer) Play(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Attempts++
	p.playing = false
	if p.Blocked {
		return ErrBlocked
	}
	p.Played = append(p.Played, url)
	p.playing = true
	return nil
}

// Stop 停止
func (p *MockPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	return nil
}

// OnFinish 设置回调
func (p *MockPlayer) OnFinish(handler func()) {
	p.mu.Lock()
	p.onFinish = handler
	p.mu.Unlock()
}

// Finish 模拟播放自然结束
func (p *MockPlayer) Finish() {
	p.mu.Lock()
	p.playing = false
	onFinish := p.onFinish
	p.mu.Unlock()
	if onFinish != nil {
		onFinish()
	}
}

// IsPlaying 检查状态
func (p *MockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Snapshot 返回已播放地址与尝试次数
func (p *MockPlayer) Snapshot() ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Played...), p.Attempts
}
