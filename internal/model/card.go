// Package model 定义客户端共享的领域类型
package model

import "strings"

// Preferences 推荐的讲解视角（用户也可以自定义）
var Preferences = []string{
	"Hands-on Science",
	"Art Appreciation",
	"Nature Watch",
	"Experiment Recap",
}

// Card 一次生成得到的学习卡片
type Card struct {
	Title               string `json:"title" yaml:"title"`
	Desc                string `json:"desc" yaml:"desc"`
	CentralObject       string `json:"central_object,omitempty" yaml:"central_object,omitempty"`
	HighlightedImageURL string `json:"highlighted_image_url,omitempty" yaml:"highlighted_image_url,omitempty"`
	AudioURL            string `json:"audio_url,omitempty" yaml:"audio_url,omitempty"`
}

// DisplayImage 返回卡片展示用的图片
// 没有高亮图时回退到原始照片
func (c *Card) DisplayImage(original string) string {
	if c != nil && c.HighlightedImageURL != "" {
		return c.HighlightedImageURL
	}
	return original
}

// HasNarration 是否有语音讲解
func (c *Card) HasNarration() bool {
	return c != nil && c.AudioURL != ""
}

// Context 拼接聊天请求所需的 card_context
func (c *Card) Context() string {
	if c == nil {
		return ""
	}
	return c.Title + "\n" + c.Desc
}

// Subject 卡片副标题，未识别到主体时使用默认文案
func (c *Card) Subject() string {
	if c == nil || strings.TrimSpace(c.CentralObject) == "" {
		return "Automatically detected scene"
	}
	return c.CentralObject
}

// GeneratePayload 生成卡片的请求体，也是会话中的 processingPayload
type GeneratePayload struct {
	ImageURL       string `json:"image_url"`
	UserPreference string `json:"user_preference,omitempty"`
}
