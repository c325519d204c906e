// Package session 持有客户端唯一的会话状态
package session

import "snapopedia-cli/internal/model"

// Session 一次使用过程中的全部客户端状态
// ConversationID 为空表示尚未开始对话
type Session struct {
	ImageURL          string
	UserPreference    string
	Card              *model.Card
	ConversationID    string
	ChatHistory       []model.ChatMessage
	ProcessingPayload *model.GeneratePayload
	AutoPlayAudio     bool
}

// Clone 深拷贝，调用方拿到的快照互不影响
func (s Session) Clone() Session {
	out := s
	if s.Card != nil {
		card := *s.Card
		out.Card = &card
	}
	if s.ProcessingPayload != nil {
		p := *s.ProcessingPayload
		out.ProcessingPayload = &p
	}
	if s.ChatHistory != nil {
		out.ChatHistory = make([]model.ChatMessage, len(s.ChatHistory))
		copy(out.ChatHistory, s.ChatHistory)
	}
	return out
}

// HasCard 是否已有生成好的卡片
func (s Session) HasCard() bool {
	return s.Card != nil
}

// Message 按 ID 查找消息
func (s Session) Message(id string) (model.ChatMessage, bool) {
	for _, m := range s.ChatHistory {
		if m.ID == id {
			return m, true
		}
	}
	return model.ChatMessage{}, false
}

// PendingAutoPlay 返回等待自动播放的助手消息
func (s Session) PendingAutoPlay() (model.ChatMessage, bool) {
	for _, m := range s.ChatHistory {
		if m.Role == model.RoleAssistant && m.AutoPlay && m.HasAudio() {
			return m, true
		}
	}
	return model.ChatMessage{}, false
}

// AppendMessage 追加一条消息
// 新消息需要自动播放时，其余消息的 AutoPlay 一律清除
func AppendMessage(msg model.ChatMessage) func(Session) Session {
	return func(s Session) Session {
		if msg.AutoPlay {
			for i := range s.ChatHistory {
				s.ChatHistory[i].AutoPlay = false
			}
		}
		s.ChatHistory = append(s.ChatHistory, msg)
		return s
	}
}

// MarkMessage 修改指定消息的状态
func MarkMessage(id string, status model.MessageStatus) func(Session) Session {
	return func(s Session) Session {
		for i := range s.ChatHistory {
			if s.ChatHistory[i].ID == id {
				s.ChatHistory[i].Status = status
			}
		}
		return s
	}
}

// ClearAutoPlay 清除指定消息的自动播放标记，清除后不会再恢复
func ClearAutoPlay(id string) func(Session) Session {
	return func(s Session) Session {
		for i := range s.ChatHistory {
			if s.ChatHistory[i].ID == id {
				s.ChatHistory[i].AutoPlay = false
			}
		}
		return s
	}
}
