// Package shell 交互式界面：页面导航与命令处理
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/camera"
	"snapopedia-cli/internal/flow"
	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/session"
	"snapopedia-cli/internal/terminal"
)

// ErrQuit 用户退出
var ErrQuit = errors.New("quit")

// Deps 界面依赖的组件
type Deps struct {
	Store      *session.Store
	Generation *flow.GenerationController
	Chat       *flow.ChatController
	Narrator   *flow.Narrator
	Camera     camera.Camera
	Renderer   *terminal.Renderer
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Shell 交互式界面
type Shell struct {
	deps   Deps
	out    io.Writer
	logger *logrus.Entry

	mu       sync.Mutex
	loc      Location
	lastFile *api.ImageFile
}

// New 创建交互式界面
func New(deps Deps, out io.Writer) *Shell {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
		deps.Logger.SetOutput(io.Discard)
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.Camera == nil {
		deps.Camera = camera.NewCommandCamera("")
	}
	if deps.Renderer == nil {
		deps.Renderer = terminal.NewRenderer(out)
	}
	s := &Shell{
		deps:   deps,
		out:    out,
		logger: deps.Logger.WithField("component", "shell"),
		loc:    Home,
	}
	deps.Generation.OnChange(deps.Renderer.Render)
	return s
}

// Location 当前地址
func (s *Shell) Location() Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// Run 读取命令直到输入结束或退出
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	s.renderScreen()

	scanner := bufio.NewScanner(in)
	for {
		s.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := s.Exec(ctx, scanner.Text()); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			s.printError(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close 释放界面持有的流程
func (s *Shell) Close() {
	s.deps.Generation.Close()
	s.deps.Chat.Close()
	s.deps.Narrator.Stop()
}

// Exec 执行一行命令
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	s.logger.WithField("cmd", name).Debug("exec")

	switch strings.ToLower(name) {
	case "help", "?":
		s.printHelp()
	case "quit", "exit", "q":
		return ErrQuit
	case "go":
		s.navigate(Parse(arg))
	case "home":
		s.navigate(Home)
	case "card":
		s.navigate(Card)
	case "chat":
		s.navigate(Chat)
	case "close":
		s.navigate(Card)
	case "lens":
		s.setLens(arg)
	case "upload":
		return s.upload(ctx, arg)
	case "capture":
		return s.capture(ctx)
	case "retry":
		return s.retry(ctx)
	case "dismiss":
		s.deps.Generation.DismissError()
		s.navigate(Upload)
	case "resume":
		return s.resume(ctx)
	case "ask":
		return s.ask(ctx, arg)
	case "audio":
		return s.setAudio(arg)
	case "play":
		return s.play(arg)
	case "stop":
		s.deps.Narrator.Stop()
	case "share":
		return s.share()
	case "download":
		return s.download(ctx, arg)
	case "reset":
		s.reset()
	default:
		if s.Location().ChatOpen {
			return s.ask(ctx, line)
		}
		return fmt.Errorf("unknown command %q, type 'help' for a list", name)
	}
	return nil
}

// navigate 跳转并渲染页面
// 离开卡片页停止讲解，关闭抽屉时清理聊天错误
func (s *Shell) navigate(loc Location) {
	next := Resolve(loc, s.deps.Store.Snapshot())

	s.mu.Lock()
	prev := s.loc
	s.loc = next
	s.mu.Unlock()

	if prev.ChatOpen && !next.ChatOpen {
		s.deps.Chat.Close()
	}
	if prev.Screen == ScreenCard && next.Screen != ScreenCard {
		s.deps.Narrator.Stop()
	}

	s.renderScreen()

	if next.Screen == ScreenCard && (prev.Screen != ScreenCard || prev == next) {
		if played, err := s.deps.Narrator.PlayCardIfPending(s.deps.Store); err != nil {
			s.logger.WithError(err).Warn("card narration blocked")
			fmt.Fprintln(s.out, "  (narration ready, type 'play' to listen)")
		} else if played {
			fmt.Fprintln(s.out, "  ♪ playing narration")
		}
	}
}

func (s *Shell) setLens(arg string) {
	switch {
	case arg == "":
		s.renderLenses()
		return
	case strings.EqualFold(arg, "none"):
		s.deps.Generation.SetPreference("")
	default:
		if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(model.Preferences) {
			arg = model.Preferences[n-1]
		}
		s.deps.Generation.SetPreference(arg)
	}
	if p := s.deps.Generation.Preference(); p != "" {
		fmt.Fprintf(s.out, "Lens: %s\n", p)
	} else {
		fmt.Fprintln(s.out, "Lens cleared")
	}
}

func (s *Shell) upload(ctx context.Context, path string) error {
	if path == "" {
		return api.ErrEmptyImage
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return s.submit(ctx, api.ImageFile{Name: filepath.Base(path), Data: data})
}

func (s *Shell) capture(ctx context.Context) error {
	file, err := s.deps.Camera.Capture(ctx)
	if err != nil {
		return err
	}
	return s.submit(ctx, file)
}

func (s *Shell) retry(ctx context.Context) error {
	s.mu.Lock()
	file := s.lastFile
	s.mu.Unlock()
	if file == nil {
		return api.ErrEmptyImage
	}
	return s.submit(ctx, *file)
}

// submit 上传并生成，成功后进入卡片页
func (s *Shell) submit(ctx context.Context, file api.ImageFile) error {
	if s.Location().Screen != ScreenUpload {
		s.mu.Lock()
		s.loc = Upload
		s.mu.Unlock()
	}
	s.mu.Lock()
	s.lastFile = &file
	s.mu.Unlock()

	if err := s.deps.Generation.Submit(ctx, file); err != nil {
		s.logger.WithError(err).Debug("generation did not complete")
		if errors.Is(err, flow.ErrBusy) || errors.Is(err, flow.ErrClosed) {
			return err
		}
		// 其余失败已经由进度浮层展示
		return nil
	}
	s.navigate(Card)
	return nil
}

func (s *Shell) resume(ctx context.Context) error {
	err := s.deps.Generation.Resume(ctx)
	switch {
	case errors.Is(err, flow.ErrNothingToResume):
		s.navigate(Upload)
		return nil
	case errors.Is(err, flow.ErrBusy):
		return err
	case err != nil:
		return nil
	}
	s.navigate(Card)
	return nil
}

func (s *Shell) ask(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" {
		return nil
	}
	if !s.Location().ChatOpen {
		s.navigate(Chat)
		if !s.Location().ChatOpen {
			return flow.ErrNoCard
		}
	}

	before := len(s.deps.Store.Snapshot().ChatHistory)
	fmt.Fprintln(s.out, "  Thinking...")
	err := s.deps.Chat.Send(ctx, question)
	if errors.Is(err, flow.ErrNoCard) || errors.Is(err, flow.ErrSending) {
		return err
	}

	history := s.deps.Store.Snapshot().ChatHistory
	if before > len(history) {
		before = 0
	}
	for i := before; i < len(history); i++ {
		s.renderMessage(i+1, history[i])
	}
	if view := s.deps.Chat.View(); view.Error != "" {
		fmt.Fprintf(s.out, "  ! %s\n", view.Error)
	}
	return nil
}

func (s *Shell) setAudio(arg string) error {
	switch strings.ToLower(arg) {
	case "on":
		s.deps.Chat.SetNeedAudio(true)
	case "off":
		s.deps.Chat.SetNeedAudio(false)
	case "":
	default:
		return fmt.Errorf("usage: audio on|off")
	}
	if s.deps.Chat.View().NeedAudio {
		fmt.Fprintln(s.out, "Need audio response: on")
	} else {
		fmt.Fprintln(s.out, "Need audio response: off")
	}
	return nil
}

// play 不带参数时切换卡片讲解，否则切换某条消息（序号或 ID）
func (s *Shell) play(arg string) error {
	snap := s.deps.Store.Snapshot()
	if arg == "" {
		if !snap.Card.HasNarration() {
			return flow.ErrNoAudio
		}
		playing, err := s.deps.Narrator.Toggle(flow.CardNarrationID, snap.Card.AudioURL)
		if err != nil {
			return err
		}
		s.printPlaying(playing)
		return nil
	}

	id := strings.TrimPrefix(arg, "#")
	if n, err := strconv.Atoi(id); err == nil && n >= 1 && n <= len(snap.ChatHistory) {
		id = snap.ChatHistory[n-1].ID
	}
	playing, err := s.deps.Chat.Toggle(id)
	if err != nil {
		return err
	}
	s.printPlaying(playing)
	return nil
}

func (s *Shell) share() error {
	snap := s.deps.Store.Snapshot()
	if !snap.HasCard() {
		return flow.ErrNoCard
	}
	fmt.Fprintln(s.out, ShareText(snap.Card))
	return nil
}

func (s *Shell) download(ctx context.Context, path string) error {
	snap := s.deps.Store.Snapshot()
	if !snap.HasCard() {
		return flow.ErrNoCard
	}
	if path == "" {
		path = DefaultDownloadName(snap.Card)
	}
	s.mu.Lock()
	local := s.lastFile
	s.mu.Unlock()

	d := downloader{client: s.deps.HTTPClient, local: local}
	n, err := d.save(ctx, snap.Card.DisplayImage(snap.ImageURL), path)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"path": path, "bytes": n}).Info("image saved")
	fmt.Fprintf(s.out, "Saved %s (%d bytes)\n", path, n)
	return nil
}

// reset 丢弃当前会话，回到首页
func (s *Shell) reset() {
	s.deps.Narrator.Stop()
	s.deps.Chat.Close()
	s.deps.Generation.DismissError()
	s.deps.Store.Reset()
	s.mu.Lock()
	s.lastFile = nil
	s.mu.Unlock()
	s.navigate(Home)
}

func (s *Shell) prompt() {
	fmt.Fprintf(s.out, "snapopedia:%s> ", s.Location())
}

func (s *Shell) printPlaying(playing bool) {
	if playing {
		fmt.Fprintln(s.out, "  ♪ playing")
	} else {
		fmt.Fprintln(s.out, "  paused")
	}
}

func (s *Shell) printError(err error) {
	fmt.Fprintf(s.out, "✗ %s\n", api.Message(err, err.Error()))
}
