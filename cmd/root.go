// Package cmd 实现 CLI 命令
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"snapopedia-cli/internal/config"
	"snapopedia-cli/internal/shell"
	"snapopedia-cli/internal/terminal"
)

var rootCmd = &cobra.Command{
	Use:   "snapopedia",
	Short: "Snapopedia - 拍一张照片，生成一张学习卡片",
	Long: `Snapopedia CLI 客户端

上传或拍摄一张照片，生成讲解卡片，并围绕卡片继续追问。

直接运行即可进入交互界面，输入 help 查看所有命令。
未配置后端（或后端地址指向 example.com）时使用内置的本地替身。`,
	Run: runInteractive,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局参数
	rootCmd.PersistentFlags().StringP("server", "s", "", "后端地址 (默认: "+config.DefaultBaseURL+")")
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "初始化配置失败: %v\n", err)
		os.Exit(1)
	}

	// 如果指定了后端地址，覆盖配置
	if server, _ := rootCmd.PersistentFlags().GetString("server"); server != "" {
		config.SetBaseURL(server)
	}
}

// runInteractive 交互式主流程
func runInteractive(cmd *cobra.Command, args []string) {
	printBanner()

	a := newApp()
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh := shell.New(shell.Deps{
		Store:      a.store,
		Generation: a.generation,
		Chat:       a.chat,
		Narrator:   a.narrator,
		Camera:     a.camera,
		Renderer:   terminal.NewRenderer(os.Stdout),
		Logger:     a.logger,
	}, os.Stdout)

	if err := sh.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("再见！")
}

func printBanner() {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║         📷 Snapopedia CLI                      ║")
	fmt.Println("║                                                ║")
	fmt.Println("║   拍一张照片，生成一张学习卡片                    ║")
	fmt.Println("╚════════════════════════════════════════════════╝")
	fmt.Println()
}
