package flow

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/session"
)

var (
	// ErrNoCard 还没有卡片时不能追问
	ErrNoCard = &api.ValidationError{Message: "Generate a card before asking a question."}
	// ErrNoAudio 消息没有语音
	ErrNoAudio = &api.ValidationError{Message: "This message has no narration."}
	// ErrSending 上一个问题还在等待回答
	ErrSending = errors.New("still waiting for the previous answer")
)

// ChatView 渲染聊天抽屉所需的状态
type ChatView struct {
	Sending   bool
	Error     string
	NeedAudio bool
	Playing   string // 正在播放的消息 ID
}

// ChatConfig 追问流程参数
type ChatConfig struct {
	NeedAudio bool
	NewID     func() string
	Now       func() time.Time
	Logger    *logrus.Logger
}

// ChatController 追问流程：乐观追加用户消息 → 请求 → 追加回答
type ChatController struct {
	svc      api.Service
	store    *session.Store
	narrator *Narrator
	newID    func() string
	now      func() time.Time
	logger   *logrus.Entry

	mu        sync.Mutex
	sending   bool
	errMsg    string
	needAudio bool
}

// NewChatController 创建追问流程控制器
func NewChatController(svc api.Service, store *session.Store, narrator *Narrator, cfg ChatConfig) *ChatController {
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}
	return &ChatController{
		svc:       svc,
		store:     store,
		narrator:  narrator,
		newID:     cfg.NewID,
		now:       cfg.Now,
		logger:    cfg.Logger.WithField("flow", "chat"),
		needAudio: cfg.NeedAudio,
	}
}

// View 当前状态
func (c *ChatController) View() ChatView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChatView{
		Sending:   c.sending,
		Error:     c.errMsg,
		NeedAudio: c.needAudio,
		Playing:   c.narrator.Playing(),
	}
}

// SetNeedAudio 是否需要语音回答
func (c *ChatController) SetNeedAudio(v bool) {
	c.mu.Lock()
	c.needAudio = v
	c.mu.Unlock()
}

// Send 发送一个问题
// 只有空白字符时什么都不做；请求失败时用户消息保留并标记为 failed
func (c *ChatController) Send(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}
	if !c.store.Snapshot().HasCard() {
		return ErrNoCard
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSending
	}
	c.sending = true
	c.errMsg = ""
	needAudio := c.needAudio
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	userMsg := model.ChatMessage{
		ID:      c.newID(),
		Role:    model.RoleUser,
		Content: question,
		TS:      c.now(),
		Status:  model.StatusPending,
	}
	cur := c.store.Update(session.AppendMessage(userMsg))

	req := api.ChatRequest{
		CardContext:    cur.Card.Context(),
		Question:       question,
		ConversationID: cur.ConversationID,
		UserPreference: cur.UserPreference,
		ImageURL:       cur.ImageURL,
		NeedAudio:      needAudio,
	}
	log := c.logger.WithField("conversation_id", req.ConversationID)

	res, err := c.svc.ChatWithCard(ctx, req)
	if err != nil {
		c.store.Update(session.MarkMessage(userMsg.ID, model.StatusFailed))
		c.mu.Lock()
		c.errMsg = api.Message(err, "Failed to send, please try again later.")
		c.mu.Unlock()
		log.WithError(err).Warn("chat failed")
		return err
	}

	reply := model.ChatMessage{
		ID:       c.newID(),
		Role:     model.RoleAssistant,
		Content:  res.Answer,
		TS:       c.now(),
		AudioURL: res.AudioURL,
		AutoPlay: res.AudioURL != "",
		Status:   model.StatusConfirmed,
	}
	c.store.Update(func(s session.Session) session.Session {
		s = session.MarkMessage(userMsg.ID, model.StatusConfirmed)(s)
		s = session.AppendMessage(reply)(s)
		if res.ConversationID != "" {
			s.ConversationID = res.ConversationID
		}
		return s
	})
	log.WithField("conversation_id", res.ConversationID).Info("answer received")

	if reply.AutoPlay {
		c.autoPlay(reply.ID)
	}
	return nil
}

// Toggle 播放或暂停某条消息的语音
func (c *ChatController) Toggle(id string) (bool, error) {
	msg, ok := c.store.Snapshot().Message(id)
	if !ok || !msg.HasAudio() {
		return false, ErrNoAudio
	}
	return c.narrator.Toggle(id, msg.AudioURL)
}

// Close 关闭聊天抽屉：停止语音，清除错误
func (c *ChatController) Close() {
	c.narrator.Stop()
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

// autoPlay 尝试一次自动播放，之后清除标记
func (c *ChatController) autoPlay(id string) {
	pending, ok := c.store.Snapshot().PendingAutoPlay()
	if !ok || pending.ID != id {
		return
	}
	if err := c.narrator.Play(pending.ID, pending.AudioURL); err != nil {
		c.logger.WithError(err).Debug("autoplay blocked")
	}
	c.store.Update(session.ClearAutoPlay(pending.ID))
}
