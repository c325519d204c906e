package cmd

import (
	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/camera"
	"snapopedia-cli/internal/config"
	"snapopedia-cli/internal/flow"
	"snapopedia-cli/internal/logger"
	"snapopedia-cli/internal/player"
	"snapopedia-cli/internal/session"
)

// app 一次运行中共享的组件
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	service    api.Service
	store      *session.Store
	player     player.Player
	narrator   *flow.Narrator
	generation *flow.GenerationController
	chat       *flow.ChatController
	camera     camera.Camera
}

// newApp 按配置组装各个组件
func newApp() *app {
	cfg := config.Get()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	svc := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(log),
		api.WithDelayScale(cfg.Stub.DelayScale),
	)
	if api.UsesStub(cfg.API.BaseURL) {
		log.WithField("base_url", cfg.API.BaseURL).Info("no backend configured, using the local stand-in")
	}

	var p player.Player = player.NewCommandPlayer(cfg.Player.Command, cfg.Player.Args...)
	if cfg.Player.Command == "" {
		p = player.NewMockPlayer()
	}

	store := session.NewStore()
	narrator := flow.NewNarrator(p)

	return &app{
		cfg:      cfg,
		logger:   log,
		service:  svc,
		store:    store,
		player:   p,
		narrator: narrator,
		generation: flow.NewGenerationController(svc, store, flow.GenerationConfig{
			Logger: log,
		}),
		chat: flow.NewChatController(svc, store, narrator, flow.ChatConfig{
			NeedAudio: cfg.Chat.NeedAudio,
			Logger:    log,
		}),
		camera: camera.NewCommandCamera(cfg.Camera.Command, cfg.Camera.Args...),
	}
}

func (a *app) close() {
	a.generation.Close()
	a.chat.Close()
	a.narrator.Stop()
}
