package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/model"
)

// 本地替身的固定延迟
const (
	UploadDelay   = 1200 * time.Millisecond
	GenerateDelay = 2500 * time.Millisecond
	ChatDelay     = 1800 * time.Millisecond
)

// CannedCard 本地替身返回的卡片
func CannedCard() model.Card {
	return model.Card{
		Title:         "The Journey of Cell Division",
		Desc:          "Watch mitosis unfold to see how chromosomes duplicate and split between daughter cells.",
		CentralObject: "Cells under a microscope",
	}
}

// CannedChat 本地替身返回的回答
func CannedChat() ChatResult {
	return ChatResult{
		Answer:         "Mitosis usually wraps in about 24 hours as the cell grows, copies DNA, and divides.",
		ConversationID: "mock-conv-id",
	}
}

// LocalImageURL 本地替身为上传的图片生成的地址
func LocalImageURL(name string) string {
	if name == "" {
		name = "capture.jpg"
	}
	return fmt.Sprintf("blob:snapopedia/%s/%s", uuid.New().String(), name)
}

// StubService 没有后端时使用的本地替身
// 固定延迟、固定返回，保证应用离线可用
type StubService struct {
	delayScale float64
	logger     *logrus.Logger
}

// NewStubService 创建本地替身
func NewStubService(opts ...Option) *StubService {
	o := newOptions(opts)
	return &StubService{delayScale: o.delayScale, logger: o.logger}
}

// UploadImage 模拟上传
func (s *StubService) UploadImage(ctx context.Context, file ImageFile) (*UploadResult, error) {
	if err := validateImage(file); err != nil {
		return nil, err
	}
	if err := s.wait(ctx, UploadDelay); err != nil {
		return nil, err
	}
	url := LocalImageURL(file.Name)
	s.logger.WithField("url", url).Debug("stub upload")
	return &UploadResult{URL: url}, nil
}

// GenerateCard 模拟生成
func (s *StubService) GenerateCard(ctx context.Context, payload model.GeneratePayload) (*model.Card, error) {
	if err := validateGenerate(payload); err != nil {
		return nil, err
	}
	if err := s.wait(ctx, GenerateDelay); err != nil {
		return nil, err
	}
	card := CannedCard()
	s.logger.WithField("image_url", payload.ImageURL).Debug("stub generate")
	return &card, nil
}

// ChatWithCard 模拟追问
func (s *StubService) ChatWithCard(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if err := validateChat(req); err != nil {
		return nil, err
	}
	if err := s.wait(ctx, ChatDelay); err != nil {
		return nil, err
	}
	result := CannedChat()
	s.logger.WithField("conversation_id", result.ConversationID).Debug("stub chat")
	return &result, nil
}

func (s *StubService) wait(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * s.delayScale)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &TransportError{Err: ctx.Err()}
	}
}
