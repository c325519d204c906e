package api

import (
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Option 客户端可选参数
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *logrus.Logger
	delayScale float64
}

func newOptions(opts []Option) options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	o := options{
		httpClient: &http.Client{},
		logger:     discard,
		delayScale: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient 自定义 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout 设置请求超时，0 表示沿用底层默认
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDelayScale 缩放本地替身的固定延迟，0 表示不等待
func WithDelayScale(scale float64) Option {
	return func(o *options) {
		if scale >= 0 {
			o.delayScale = scale
		}
	}
}
