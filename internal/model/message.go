package model

import "time"

// Role 聊天消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus 消息状态
// 用户消息先以 pending 追加，收到响应后变为 confirmed，请求失败则保留为 failed
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusConfirmed MessageStatus = "confirmed"
	StatusFailed    MessageStatus = "failed"
)

// ChatMessage 会话中的一条聊天消息
type ChatMessage struct {
	ID       string        `json:"id"`
	Role     Role          `json:"role"`
	Content  string        `json:"content"`
	TS       time.Time     `json:"ts"`
	AudioURL string        `json:"audio_url,omitempty"` // 仅助手消息
	AutoPlay bool          `json:"auto_play,omitempty"` // 仅助手消息，只会为 true 一次
	Status   MessageStatus `json:"status"`
}

// HasAudio 是否带语音
func (m ChatMessage) HasAudio() bool {
	return m.AudioURL != ""
}
