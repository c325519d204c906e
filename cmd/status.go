package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示当前配置",
	Long: `显示当前配置信息。

包括：
- 后端地址（以及是否使用本地替身）
- 播放器与相机命令
- 追问是否默认需要语音`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := config.Get()

	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║           Snapopedia 状态信息                   ║")
	fmt.Println("╠════════════════════════════════════════════════╣")

	fmt.Printf("║  配置文件: %s\n", config.Path())
	fmt.Printf("║  后端: %s\n", cfg.API.BaseURL)
	if api.UsesStub(cfg.API.BaseURL) {
		fmt.Println("║  模式: 本地替身（固定返回）")
	} else {
		fmt.Println("║  模式: 远程后端")
	}

	fmt.Printf("║  播放器: %s\n", commandState(cfg.Player.Command))
	fmt.Printf("║  相机: %s\n", commandState(cfg.Camera.Command))

	if cfg.Chat.NeedAudio {
		fmt.Println("║  语音回答: 开启")
	} else {
		fmt.Println("║  语音回答: 关闭")
	}

	fmt.Println("╚════════════════════════════════════════════════╝")
}

// commandState 外部命令是否可用
func commandState(command string) string {
	if command == "" {
		return "✗ 未配置"
	}
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Sprintf("✗ %s (未找到)", command)
	}
	return "✓ " + command
}
