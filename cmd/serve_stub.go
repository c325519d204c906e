package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"snapopedia-cli/internal/config"
	"snapopedia-cli/internal/logger"
	"snapopedia-cli/internal/stubserver"
)

var serveStubCmd = &cobra.Command{
	Use:   "serve-stub",
	Short: "启动本地替身后端",
	Long: `启动一个 HTTP 替身后端，提供上传、生成卡片和追问三个接口。

返回内容固定，便于在没有真实后端时联调：
  snapopedia serve-stub --addr :8787
  snapopedia --server http://localhost:8787/api/v1`,
	Run: runServeStub,
}

func init() {
	serveStubCmd.Flags().String("addr", "", "监听地址 (默认读取 stub.addr)")
	serveStubCmd.Flags().String("fail-generate", "", "生成接口返回的错误信息")
	serveStubCmd.Flags().String("fail-chat", "", "追问接口返回的错误信息")
	rootCmd.AddCommand(serveStubCmd)
}

func runServeStub(cmd *cobra.Command, args []string) {
	cfg := config.Get()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	// 替身后端默认记录每个请求
	if log.GetLevel() < logrus.InfoLevel {
		log.SetLevel(logrus.InfoLevel)
	}
	gin.SetMode(gin.ReleaseMode)

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Stub.Addr
	}
	failGenerate, _ := cmd.Flags().GetString("fail-generate")
	failChat, _ := cmd.Flags().GetString("fail-chat")

	srv := stubserver.New(stubserver.Options{
		DelayScale:    cfg.Stub.DelayScale,
		GenerateError: failGenerate,
		ChatError:     failChat,
		Logger:        log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🚀 替身后端已启动: http://localhost%s/api/v1 (Ctrl+C 退出)\n", addr)
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(os.Stderr, "✗ 替身后端异常退出: %v\n", err)
		os.Exit(1)
	}
}
