package api

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"snapopedia-cli/internal/model"
)

// ImageFile 待上传的图片（相册选择或相机拍摄）
type ImageFile struct {
	Name string
	Data []byte
}

// ContentType 根据文件内容识别 MIME 类型
func (f ImageFile) ContentType() string {
	return mimetype.Detect(f.Data).String()
}

// IsImage 是否为可以展示的图片
func (f ImageFile) IsImage() bool {
	if len(f.Data) == 0 {
		return false
	}
	return strings.HasPrefix(f.ContentType(), "image/")
}

// UploadResult 上传结果
type UploadResult struct {
	URL string `json:"url"`
}

// ChatRequest 追问请求
// ConversationID 为空时不会出现在请求体中
type ChatRequest struct {
	CardContext    string `json:"card_context"`
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserPreference string `json:"user_preference,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	NeedAudio      bool   `json:"need_audio"`
}

// ChatResult 追问结果
type ChatResult struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	AudioURL       string `json:"audio_url,omitempty"`
}

// envelope 后端统一响应头
// success 缺省时视为成功
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type uploadResponse struct {
	envelope
	UploadResult
}

type cardResponse struct {
	envelope
	model.Card
}

type chatResponse struct {
	envelope
	ChatResult
}

func (e envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

// validateImage 上传前校验
func validateImage(file ImageFile) error {
	if !file.IsImage() {
		return ErrNotAnImage
	}
	return nil
}

// validateGenerate 生成前校验
func validateGenerate(payload model.GeneratePayload) error {
	if strings.TrimSpace(payload.ImageURL) == "" {
		return ErrEmptyImage
	}
	return nil
}

// validateChat 追问前校验
func validateChat(req ChatRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}
