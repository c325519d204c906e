// Package stubserver 在本地通过 HTTP 提供与真实后端一致的三个接口
// 返回固定内容，用于联调和测试
package stubserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/model"
)

// Options 替身服务配置
type Options struct {
	DelayScale    float64 // 固定延迟的缩放比例，0 表示立即返回
	GenerateError string  // 非空时生成接口返回 success=false
	ChatError     string  // 非空时追问接口返回 success=false
	Logger        *logrus.Logger
}

type image struct {
	contentType string
	data        []byte
}

// Server 本地替身后端
type Server struct {
	opts   Options
	logger *logrus.Logger
	mu     sync.RWMutex
	images map[string]image
}

// New 创建替身服务
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Server{
		opts:   opts,
		logger: logger,
		images: make(map[string]image),
	}
}

// Router 构建 gin 路由
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(recoveryMiddleware(s.logger))
	router.Use(loggerMiddleware(s.logger))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/images/upload", s.uploadImage)
		v1.GET("/images/:id", s.getImage)
		v1.POST("/cards/generate", s.generateCard)
		v1.POST("/chat", s.chat)
	}
	return router
}

// Run 监听地址直到 ctx 结束
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("stub backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("stub backend stopped")
	return nil
}

type uploadBody struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type cardBody struct {
	Success bool `json:"success"`
	model.Card
}

type chatBody struct {
	Success bool `json:"success"`
	api.ChatResult
}

// uploadImage 保存上传的图片并返回访问地址
func (s *Server) uploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, "cannot read file")
		return
	}

	mtype := mimetype.Detect(data).String()
	if !strings.HasPrefix(mtype, "image/") {
		badRequest(c, "file must be an image")
		return
	}

	if !s.wait(c, api.UploadDelay) {
		return
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.images[id] = image{contentType: mtype, data: data}
	s.mu.Unlock()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	success(c, uploadBody{
		Success: true,
		URL:     fmt.Sprintf("%s://%s/api/v1/images/%s", scheme, c.Request.Host, id),
	})
}

// getImage 返回之前上传的图片
func (s *Server) getImage(c *gin.Context) {
	s.mu.RLock()
	img, ok := s.images[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		notFound(c, "image not found")
		return
	}
	c.Data(http.StatusOK, img.contentType, img.data)
}

// generateCard 返回固定卡片
func (s *Server) generateCard(c *gin.Context) {
	var req model.GeneratePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		badRequest(c, "image_url is required")
		return
	}
	if !s.wait(c, api.GenerateDelay) {
		return
	}
	if s.opts.GenerateError != "" {
		fail(c, s.opts.GenerateError)
		return
	}
	success(c, cardBody{Success: true, Card: api.CannedCard()})
}

// chat 返回固定回答，已有对话时原样带回对话 ID
func (s *Server) chat(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		badRequest(c, "question is required")
		return
	}
	if !s.wait(c, api.ChatDelay) {
		return
	}
	if s.opts.ChatError != "" {
		fail(c, s.opts.ChatError)
		return
	}

	result := api.CannedChat()
	if req.ConversationID != "" {
		result.ConversationID = req.ConversationID
	}
	success(c, chatBody{Success: true, ChatResult: result})
}

// wait 模拟后端耗时，客户端断开时返回 false
func (s *Server) wait(c *gin.Context, d time.Duration) bool {
	d = time.Duration(float64(d) * s.opts.DelayScale)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.Request.Context().Done():
		c.Abort()
		return false
	}
}
