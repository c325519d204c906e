package shell_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/flow"
	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/player"
	"snapopedia-cli/internal/session"
	"snapopedia-cli/internal/shell"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// syncBuffer 进度浮层会在计时器协程中输出
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// narratedService 返回带语音的卡片
type narratedService struct {
	*api.StubService
}

func (s narratedService) GenerateCard(ctx context.Context, payload model.GeneratePayload) (*model.Card, error) {
	card, err := s.StubService.GenerateCard(ctx, payload)
	if err != nil {
		return nil, err
	}
	card.AudioURL = "https://cdn.test/card.mp3"
	return card, nil
}

type fixture struct {
	shell  *shell.Shell
	store  *session.Store
	player *player.MockPlayer
	out    *syncBuffer
	dir    string
}

func newFixture(t *testing.T, svc api.Service) *fixture {
	t.Helper()
	if svc == nil {
		svc = api.NewStubService(api.WithDelayScale(0))
	}
	store := session.NewStore()
	mock := player.NewMockPlayer()
	narrator := flow.NewNarrator(mock)
	gen := flow.NewGenerationController(svc, store, flow.GenerationConfig{
		ProgressInterval: time.Millisecond,
		StatusInterval:   time.Millisecond,
		SettleDelay:      -1,
	})
	chat := flow.NewChatController(svc, store, narrator, flow.ChatConfig{NeedAudio: true})
	out := &syncBuffer{}
	sh := shell.New(shell.Deps{
		Store:      store,
		Generation: gen,
		Chat:       chat,
		Narrator:   narrator,
	}, out)
	t.Cleanup(sh.Close)
	return &fixture{shell: sh, store: store, player: mock, out: out, dir: t.TempDir()}
}

func (f *fixture) exec(t *testing.T, line string) {
	t.Helper()
	if err := f.shell.Exec(context.Background(), line); err != nil {
		t.Fatalf("Exec(%q): %v", line, err)
	}
}

func (f *fixture) photo(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNavigationGuards(t *testing.T) {
	f := newFixture(t, nil)

	if got := f.shell.Location(); got != shell.Home {
		t.Fatalf("initial location = %v", got)
	}
	f.exec(t, "go /card")
	if got := f.shell.Location(); got != shell.Upload {
		t.Errorf("card without a card should land on upload, got %v", got)
	}
	f.exec(t, "go /nowhere")
	if got := f.shell.Location(); got != shell.Home {
		t.Errorf("unknown location should land on home, got %v", got)
	}
}

func TestUploadThenAsk(t *testing.T) {
	f := newFixture(t, nil)
	path := f.photo(t, "leaf.png", pngData)

	f.exec(t, "lens 1")
	f.exec(t, "upload "+path)

	if got := f.shell.Location(); got != shell.Card {
		t.Fatalf("location after upload = %v, want %v", got, shell.Card)
	}
	snap := f.store.Snapshot()
	if !snap.HasCard() || snap.Card.Title != api.CannedCard().Title {
		t.Fatalf("card = %+v", snap.Card)
	}
	if snap.UserPreference != model.Preferences[0] {
		t.Errorf("preference = %q", snap.UserPreference)
	}
	if !strings.Contains(f.out.String(), api.CannedCard().Title) {
		t.Errorf("card screen not rendered:\n%s", f.out.String())
	}

	f.exec(t, "ask How long does it take?")
	if got := f.shell.Location(); got != shell.Chat {
		t.Errorf("ask should open the chat drawer, got %v", got)
	}
	snap = f.store.Snapshot()
	if len(snap.ChatHistory) != 2 {
		t.Fatalf("history = %+v", snap.ChatHistory)
	}
	if snap.ConversationID != "mock-conv-id" {
		t.Errorf("conversation id = %q", snap.ConversationID)
	}

	// 抽屉打开时直接输入文字即提问
	f.exec(t, "And then?")
	if n := len(f.store.Snapshot().ChatHistory); n != 4 {
		t.Errorf("history length = %d, want 4", n)
	}

	f.exec(t, "close")
	if got := f.shell.Location(); got != shell.Card {
		t.Errorf("close should keep the card open, got %v", got)
	}
}

func TestPlainTextOutsideChat(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.shell.Exec(context.Background(), "hello there"); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFixture(t, nil)
	path := f.photo(t, "notes.txt", []byte("just some text"))

	f.exec(t, "upload "+path)

	if got := f.shell.Location(); got != shell.Upload {
		t.Errorf("location = %v, want upload", got)
	}
	if f.store.Snapshot().HasCard() {
		t.Error("no card expected")
	}
	if !strings.Contains(f.out.String(), api.ErrNotAnImage.Message) {
		t.Errorf("inline error not shown:\n%s", f.out.String())
	}
}

func TestRetryWithoutPhoto(t *testing.T) {
	f := newFixture(t, nil)
	err := f.shell.Exec(context.Background(), "retry")
	if !errors.Is(err, api.ErrEmptyImage) {
		t.Fatalf("retry = %v", err)
	}
}

func TestShareAndDownload(t *testing.T) {
	f := newFixture(t, nil)
	f.exec(t, "upload "+f.photo(t, "leaf.png", pngData))

	f.exec(t, "share")
	card := api.CannedCard()
	if !strings.Contains(f.out.String(), card.Title+"\n"+card.Desc) {
		t.Errorf("share output missing:\n%s", f.out.String())
	}

	dst := filepath.Join(f.dir, "saved.png")
	f.exec(t, "download "+dst)
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pngData) {
		t.Errorf("downloaded %d bytes, want the uploaded photo", len(got))
	}
}

func TestCardNarrationAutoPlaysOnce(t *testing.T) {
	f := newFixture(t, narratedService{api.NewStubService(api.WithDelayScale(0))})
	f.exec(t, "upload "+f.photo(t, "leaf.png", pngData))

	played, _ := f.player.Snapshot()
	if len(played) != 1 || played[0] != "https://cdn.test/card.mp3" {
		t.Fatalf("played = %v", played)
	}
	if f.store.Snapshot().AutoPlayAudio {
		t.Error("autoplay flag should be consumed")
	}

	f.exec(t, "home")
	f.exec(t, "card")
	if played, _ := f.player.Snapshot(); len(played) != 1 {
		t.Errorf("narration replayed on revisit: %v", played)
	}

	f.exec(t, "play")
	if played, _ := f.player.Snapshot(); len(played) != 2 {
		t.Errorf("play should start the narration again: %v", played)
	}
}

func TestPlayWithoutNarration(t *testing.T) {
	f := newFixture(t, nil)
	f.exec(t, "upload "+f.photo(t, "leaf.png", pngData))
	if err := f.shell.Exec(context.Background(), "play"); !errors.Is(err, flow.ErrNoAudio) {
		t.Fatalf("play = %v", err)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t, nil)
	f.exec(t, "upload "+f.photo(t, "leaf.png", pngData))
	f.exec(t, "reset")

	if got := f.shell.Location(); got != shell.Home {
		t.Errorf("location = %v", got)
	}
	if f.store.Snapshot().HasCard() {
		t.Error("card should be cleared")
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	f := newFixture(t, nil)
	in := strings.NewReader("help\naudio off\nquit\nhelp\n")
	if err := f.shell.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := f.out.String()
	if !strings.Contains(out, "Need audio response: off") {
		t.Errorf("audio toggle not echoed:\n%s", out)
	}
	if strings.Count(out, "Commands:") != 1 {
		t.Errorf("commands after quit should not run")
	}
}

func TestShareTextAndDownloadName(t *testing.T) {
	card := &model.Card{Title: "The Journey of Cell Division", Desc: "Mitosis."}
	if got := shell.ShareText(card); got != "The Journey of Cell Division\nMitosis." {
		t.Errorf("ShareText = %q", got)
	}
	if got := shell.DefaultDownloadName(card); got != "the-journey-of-cell-division.jpg" {
		t.Errorf("DefaultDownloadName = %q", got)
	}
	if got := shell.DefaultDownloadName(&model.Card{Title: "???"}); got != "snapopedia-card.jpg" {
		t.Errorf("DefaultDownloadName = %q", got)
	}
}
