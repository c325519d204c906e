// Package flow 实现生成与追问两个流程控制器
package flow

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/session"
)

// Phase 生成流程所处阶段
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseGenerating Phase = "generating"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

var (
	// ErrBusy 上一张照片还在处理中
	ErrBusy = errors.New("a photo is already being processed")
	// ErrClosed 控制器已销毁，结果被丢弃
	ErrClosed = errors.New("flow closed")
	// ErrNothingToResume 没有进行中的生成请求
	ErrNothingToResume = errors.New("no generation in progress")
)

// GenerationView 渲染生成界面所需的状态
type GenerationView struct {
	Phase          Phase
	Preview        string  // 最近一次上传的图片
	Progress       float64 // 0-100，仅用于展示
	Status         string
	OverlayVisible bool
	OverlayError   string // 生成失败，显示在浮层中
	InlineError    string // 上传失败，显示在页面中
}

// GenerationConfig 生成流程参数，零值使用默认值
type GenerationConfig struct {
	StatusLines      []string
	ProgressInterval time.Duration
	StatusInterval   time.Duration
	SettleDelay      time.Duration // 进度到 100 后停留的时间，负数表示不停留
	Rand             func() float64
	Logger           *logrus.Logger
}

func (c GenerationConfig) withDefaults() GenerationConfig {
	if len(c.StatusLines) == 0 {
		c.StatusLines = StatusLines
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = ProgressInterval
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = StatusInterval
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = SettleDelay
	}
	if c.Rand == nil {
		c.Rand = rand.Float64
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
		c.Logger.SetOutput(io.Discard)
	}
	return c
}

// GenerationController 上传 → 生成 → 卡片
// 状态: Idle → Uploading → Generating → Succeeded | Failed
type GenerationController struct {
	svc    api.Service
	store  *session.Store
	cfg    GenerationConfig
	logger *logrus.Entry

	mu         sync.Mutex
	view       GenerationView
	statusIdx  int
	preference string
	run        uint64 // 每次生成递增，用于识别过期的回调
	tasks      []*periodicTask
	closed     bool
	onChange   func(GenerationView)

	emitMu sync.Mutex
}

// NewGenerationController 创建生成流程控制器
func NewGenerationController(svc api.Service, store *session.Store, cfg GenerationConfig) *GenerationController {
	cfg = cfg.withDefaults()
	snap := store.Snapshot()
	return &GenerationController{
		svc:        svc,
		store:      store,
		cfg:        cfg,
		logger:     cfg.Logger.WithField("flow", "generation"),
		preference: snap.UserPreference,
		view: GenerationView{
			Phase:   PhaseIdle,
			Preview: snap.ImageURL,
			Status:  cfg.StatusLines[0],
		},
	}
}

// OnChange 设置状态变化回调
// 回调中不能同步调用 Submit / Resume / DismissError
func (c *GenerationController) OnChange(fn func(GenerationView)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// View 当前状态
func (c *GenerationController) View() GenerationView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetPreference 选择讲解视角，下一次生成时生效
func (c *GenerationController) SetPreference(p string) {
	c.mu.Lock()
	c.preference = strings.TrimSpace(p)
	c.mu.Unlock()
}

// Preference 当前选择的讲解视角
func (c *GenerationController) Preference() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preference
}

// Submit 上传照片并立即开始生成
func (c *GenerationController) Submit(ctx context.Context, file api.ImageFile) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.view.Phase == PhaseUploading || c.view.Phase == PhaseGenerating {
		c.mu.Unlock()
		return ErrBusy
	}
	c.view.Phase = PhaseUploading
	c.view.InlineError = ""
	c.view.OverlayError = ""
	c.view.OverlayVisible = false
	c.mu.Unlock()
	c.emit()

	res, err := c.svc.UploadImage(ctx, file)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.view.Phase = PhaseIdle
		c.view.InlineError = api.Message(err, "Upload failed, please try again.")
		c.mu.Unlock()
		c.logger.WithError(err).Warn("upload failed")
		c.emit()
		return err
	}
	c.view.Preview = res.URL
	c.mu.Unlock()

	c.store.Set(session.WithImageURL(res.URL))
	c.logger.WithField("image_url", res.URL).Info("image uploaded")

	return c.generate(ctx, res.URL)
}

// Resume 直接进入处理页时继续会话中未完成的生成
// 没有待处理请求时返回 ErrNothingToResume，调用方应回到拍照页
func (c *GenerationController) Resume(ctx context.Context) error {
	payload := c.store.Snapshot().ProcessingPayload
	if payload == nil {
		return ErrNothingToResume
	}
	c.mu.Lock()
	if c.view.Phase == PhaseUploading || c.view.Phase == PhaseGenerating {
		c.mu.Unlock()
		return ErrBusy
	}
	c.preference = payload.UserPreference
	c.view.Preview = payload.ImageURL
	c.mu.Unlock()
	return c.generate(ctx, payload.ImageURL)
}

// DismissError 关闭失败浮层，回到拍照状态，已选视角保持不变
func (c *GenerationController) DismissError() {
	c.stopTasks()
	c.mu.Lock()
	if c.view.Phase == PhaseUploading || c.view.Phase == PhaseGenerating {
		c.mu.Unlock()
		return
	}
	c.view.Phase = PhaseIdle
	c.view.OverlayVisible = false
	c.view.OverlayError = ""
	c.view.Progress = 0
	c.statusIdx = 0
	c.view.Status = c.cfg.StatusLines[0]
	c.mu.Unlock()
	c.emit()
}

// Close 销毁控制器：停止计时器，之后完成的请求结果直接丢弃
func (c *GenerationController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.stopTasks()
}

func (c *GenerationController) generate(ctx context.Context, imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		c.mu.Lock()
		c.view.Phase = PhaseIdle
		c.view.InlineError = api.ErrEmptyImage.Error()
		c.mu.Unlock()
		c.emit()
		return api.ErrEmptyImage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.run++
	run := c.run
	preference := c.preference
	c.view.Phase = PhaseGenerating
	c.view.InlineError = ""
	c.view.OverlayVisible = true
	c.view.OverlayError = ""
	c.view.Progress = 0
	c.statusIdx = 0
	c.view.Status = c.cfg.StatusLines[0]
	c.tasks = []*periodicTask{
		startPeriodic(c.cfg.ProgressInterval, func() { c.tickProgress(run) }),
		startPeriodic(c.cfg.StatusInterval, func() { c.tickStatus(run) }),
	}
	c.mu.Unlock()
	c.emit()

	payload := model.GeneratePayload{ImageURL: imageURL, UserPreference: preference}
	c.store.Update(func(s session.Session) session.Session {
		s.UserPreference = preference
		p := payload
		s.ProcessingPayload = &p
		return s
	})

	log := c.logger.WithFields(logrus.Fields{"image_url": imageURL, "preference": preference})
	log.Info("generating card")

	card, err := c.svc.GenerateCard(ctx, payload)
	c.stopTasks()

	c.mu.Lock()
	if c.closed || c.run != run {
		c.mu.Unlock()
		log.Debug("discarding stale generation result")
		return ErrClosed
	}
	if err != nil {
		c.view.Phase = PhaseFailed
		c.view.OverlayError = api.Message(err, "Generation failed, please retry.")
		c.mu.Unlock()
		log.WithError(err).Warn("generation failed")
		c.emit()
		return err
	}
	c.view.Progress = 100
	c.statusIdx = len(c.cfg.StatusLines) - 1
	c.view.Status = c.cfg.StatusLines[c.statusIdx]
	c.mu.Unlock()
	c.emit()

	if c.cfg.SettleDelay > 0 {
		timer := time.NewTimer(c.cfg.SettleDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	c.mu.Lock()
	if c.closed || c.run != run {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	result := *card
	c.store.Update(func(s session.Session) session.Session {
		s.Card = &result
		s.ConversationID = ""
		s.ChatHistory = []model.ChatMessage{}
		s.ProcessingPayload = nil
		s.AutoPlayAudio = result.HasNarration()
		return s
	})

	c.mu.Lock()
	c.view.Phase = PhaseSucceeded
	c.view.OverlayVisible = false
	c.mu.Unlock()
	log.WithField("title", result.Title).Info("card generated")
	c.emit()
	return nil
}

func (c *GenerationController) tickProgress(run uint64) {
	c.mu.Lock()
	if c.run != run || c.view.Phase != PhaseGenerating {
		c.mu.Unlock()
		return
	}
	c.view.Progress = nextProgress(c.view.Progress, c.cfg.Rand())
	c.mu.Unlock()
	c.emit()
}

func (c *GenerationController) tickStatus(run uint64) {
	c.mu.Lock()
	if c.run != run || c.view.Phase != PhaseGenerating {
		c.mu.Unlock()
		return
	}
	c.statusIdx = nextStatus(c.statusIdx, len(c.cfg.StatusLines))
	c.view.Status = c.cfg.StatusLines[c.statusIdx]
	c.mu.Unlock()
	c.emit()
}

// stopTasks 停止计时器，不能在持有 mu 时调用
func (c *GenerationController) stopTasks() {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
}

// emit 按状态变化的顺序通知回调
func (c *GenerationController) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.mu.Lock()
	view := c.view
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(view)
	}
}
