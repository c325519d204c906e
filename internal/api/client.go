// Package api 封装与卡片生成后端的交互
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/model"
)

// Client HTTP API 客户端
// baseURL: 例如 https://api.snapopedia.app/api/v1
// 不做重试，不做去重，超时交给 http.Client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 创建 API 客户端
func NewClient(baseURL string, opts ...Option) *Client {
	o := newOptions(opts)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

// UploadImage 上传图片，返回可访问的地址
func (c *Client) UploadImage(ctx context.Context, file ImageFile) (*UploadResult, error) {
	if err := validateImage(file); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName(file)))
	header.Set("Content-Type", file.ContentType())
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp uploadResponse
	if err := c.do(req, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	return &resp.UploadResult, nil
}

// GenerateCard 根据图片生成学习卡片
func (c *Client) GenerateCard(ctx context.Context, payload model.GeneratePayload) (*model.Card, error) {
	if err := validateGenerate(payload); err != nil {
		return nil, err
	}
	var resp cardResponse
	if err := c.post(ctx, "/cards/generate", payload, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	return &resp.Card, nil
}

// ChatWithCard 围绕卡片追问一轮
func (c *Client) ChatWithCard(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if err := validateChat(req); err != nil {
		return nil, err
	}
	req.Question = strings.TrimSpace(req.Question)
	var resp chatResponse
	if err := c.post(ctx, "/chat", req, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	return &resp.ChatResult, nil
}

// --- 通用请求封装 ---
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}, env *envelope) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out, env)
}

func (c *Client) do(req *http.Request, out interface{}, env *envelope) error {
	start := time.Now()
	log := c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("unexpected status")
		return &TransportError{StatusCode: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.failed() {
		log.WithField("message", env.Message).Warn("service error")
		return &ServiceError{Message: env.Message}
	}

	log.Debug("request ok")
	return nil
}

func fileName(file ImageFile) string {
	if file.Name != "" {
		return file.Name
	}
	return fmt.Sprintf("snapopedia-camera-%d.jpg", time.Now().UnixMilli())
}
