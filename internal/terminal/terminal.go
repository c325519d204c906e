// Package terminal 负责在终端中绘制进度浮层
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"snapopedia-cli/internal/flow"
)

const (
	defaultWidth = 80
	minBarWidth  = 10
)

// Renderer 进度浮层渲染器
// 在 TTY 上原地重绘，否则只在状态文案变化时输出一行
type Renderer struct {
	out        io.Writer
	fd         int
	isTTY      bool
	mu         sync.Mutex
	lastStatus string
	lastPhase  flow.Phase
	drawn      bool
}

// NewRenderer 创建渲染器
func NewRenderer(out io.Writer) *Renderer {
	r := &Renderer{out: out, fd: -1}
	if f, ok := out.(*os.File); ok {
		r.fd = int(f.Fd())
		r.isTTY = term.IsTerminal(r.fd)
	}
	return r
}

// Width 终端宽度，获取失败时使用默认值
func (r *Renderer) Width() int {
	if r.isTTY {
		if width, _, err := term.GetSize(r.fd); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// Render 绘制生成流程的当前状态
func (r *Renderer) Render(v flow.GenerationView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case v.Phase == flow.PhaseUploading && r.lastPhase != flow.PhaseUploading:
		r.finishLine()
		fmt.Fprintln(r.out, "Uploading photo...")
	case v.OverlayError != "":
		r.finishLine()
		fmt.Fprintln(r.out, "Something went wrong")
		fmt.Fprintf(r.out, "  %s\n", v.OverlayError)
		fmt.Fprintln(r.out, "  (type 'dismiss' to close, or upload again to retry)")
	case v.InlineError != "" && v.Phase == flow.PhaseIdle:
		r.finishLine()
		fmt.Fprintf(r.out, "! %s\n", v.InlineError)
	case v.OverlayVisible || (v.Phase == flow.PhaseGenerating):
		r.drawProgress(v)
	case v.Phase == flow.PhaseSucceeded && r.lastPhase != flow.PhaseSucceeded:
		r.finishLine()
	}
	r.lastPhase = v.Phase
}

func (r *Renderer) drawProgress(v flow.GenerationView) {
	if r.isTTY {
		line := ProgressLine(v.Progress, v.Status, r.Width())
		fmt.Fprintf(r.out, "\r\033[K%s", line)
		r.drawn = true
		return
	}
	// 非终端输出只记录文案变化，避免刷屏
	if v.Status != r.lastStatus || v.Progress >= 100 {
		fmt.Fprintln(r.out, ProgressLine(v.Progress, v.Status, defaultWidth))
		r.lastStatus = v.Status
	}
}

func (r *Renderer) finishLine() {
	if r.drawn {
		fmt.Fprintln(r.out)
		r.drawn = false
	}
	r.lastStatus = ""
}

// ProgressLine 生成一行进度条，例如 [#####-----]  42% Framing your curiosity...
func ProgressLine(progress float64, status string, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	label := fmt.Sprintf(" %3d%% ", int(progress))
	barWidth := width - len(label) - len(status) - 2
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	filled := int(float64(barWidth) * progress / 100)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]" + label + status
}
