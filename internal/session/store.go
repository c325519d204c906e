package session

import (
	"sync"

	"snapopedia-cli/internal/model"
)

// Field 整体替换会话中的某个字段
type Field func(*Session)

// WithImageURL 替换当前照片地址
func WithImageURL(url string) Field {
	return func(s *Session) { s.ImageURL = url }
}

// WithUserPreference 替换讲解视角
func WithUserPreference(p string) Field {
	return func(s *Session) { s.UserPreference = p }
}

// WithCard 替换卡片
func WithCard(card *model.Card) Field {
	return func(s *Session) { s.Card = card }
}

// WithConversationID 替换对话 ID
func WithConversationID(id string) Field {
	return func(s *Session) { s.ConversationID = id }
}

// WithChatHistory 替换聊天记录
func WithChatHistory(history []model.ChatMessage) Field {
	return func(s *Session) { s.ChatHistory = history }
}

// WithProcessingPayload 替换进行中的生成请求
func WithProcessingPayload(p *model.GeneratePayload) Field {
	return func(s *Session) { s.ProcessingPayload = p }
}

// WithAutoPlayAudio 替换卡片语音自动播放标记
func WithAutoPlayAudio(v bool) Field {
	return func(s *Session) { s.AutoPlayAudio = v }
}

// Store 会话状态容器
// 所有修改都经过 Update，同一时刻只有一个修改在执行，订阅者按提交顺序收到通知。
// 订阅回调里不能同步调用 Update / Set / Reset。
type Store struct {
	commitMu sync.Mutex // 串行化 修改+通知
	mu       sync.RWMutex
	state    Session
	subs     map[int]func(Session)
	nextSub  int
}

// NewStore 创建空会话
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Session))}
}

// Snapshot 返回当前状态的拷贝
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update 以函数方式基于最新状态计算新状态
func (s *Store) Update(fn func(Session) Session) Session {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	next := fn(s.state.Clone())
	s.state = next.Clone()
	subs := make([]func(Session), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if sub, ok := s.subs[i]; ok {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next.Clone())
	}
	return next
}

// Set 整体替换若干字段
func (s *Store) Set(fields ...Field) Session {
	return s.Update(func(prev Session) Session {
		for _, f := range fields {
			f(&prev)
		}
		return prev
	})
}

// Reset 恢复为默认会话
func (s *Store) Reset() {
	s.Update(func(Session) Session { return Session{} })
}

// Subscribe 订阅状态变化，返回取消订阅函数
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}
