// Package camera 通过外部拍照命令获取照片
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"snapopedia-cli/internal/api"
)

// ErrUnavailable 没有配置或找不到拍照命令
var ErrUnavailable = errors.New("camera is not available; use 'upload <path>' instead")

// Camera 拍照接口
type Camera interface {
	Capture(ctx context.Context) (api.ImageFile, error)
}

// CommandCamera 运行外部命令（如 `imagesnap -`、`fswebcam -`），从 stdout 读取图片
// 同一时间只有一个拍照进程持有摄像头
type CommandCamera struct {
	command string
	args    []string
	mu      sync.Mutex
}

// NewCommandCamera 创建相机
func NewCommandCamera(command string, args ...string) *CommandCamera {
	return &CommandCamera{command: command, args: args}
}

// Capture 拍摄一张照片，进程结束即释放摄像头
func (c *CommandCamera) Capture(ctx context.Context) (api.ImageFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(c.command) == "" {
		return api.ImageFile{}, ErrUnavailable
	}
	if _, err := exec.LookPath(c.command); err != nil {
		return api.ImageFile{}, ErrUnavailable
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return api.ImageFile{}, fmt.Errorf("capture failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return api.ImageFile{
		Name: fmt.Sprintf("snapopedia-camera-%d.jpg", time.Now().UnixMilli()),
		Data: stdout.Bytes(),
	}, nil
}
