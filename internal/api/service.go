package api

import (
	"context"
	"net/url"
	"strings"

	"snapopedia-cli/internal/model"
)

// PlaceholderHost 占位域名，配置成它等同于没有后端
const PlaceholderHost = "example.com"

// Service 后端提供的三个操作
type Service interface {
	UploadImage(ctx context.Context, file ImageFile) (*UploadResult, error)
	GenerateCard(ctx context.Context, payload model.GeneratePayload) (*model.Card, error)
	ChatWithCard(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

var (
	_ Service = (*Client)(nil)
	_ Service = (*StubService)(nil)
)

// UsesStub 判断给定的后端地址是否需要使用本地替身
func UsesStub(baseURL string) bool {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return true
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return strings.Contains(baseURL, PlaceholderHost)
	}
	host := u.Hostname()
	return host == PlaceholderHost || strings.HasSuffix(host, "."+PlaceholderHost)
}

// New 根据后端地址选择真实客户端或本地替身
func New(baseURL string, opts ...Option) Service {
	if UsesStub(baseURL) {
		return NewStubService(opts...)
	}
	return NewClient(baseURL, opts...)
}
