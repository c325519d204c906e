package player_test

import (
	"errors"
	"testing"

	"snapopedia-cli/internal/player"
)

func TestCommandPlayerWithoutBinaryIsBlocked(t *testing.T) {
	p := player.NewCommandPlayer("snapopedia-no-such-player-binary")
	err := p.Play("https://cdn.test/a.mp3")
	if !errors.Is(err, player.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if p.IsPlaying() {
		t.Fatalf("blocked player must not report playing")
	}
}

func TestCommandPlayerEmptyCommandIsBlocked(t *testing.T) {
	if err := player.NewCommandPlayer("").Play("x"); !errors.Is(err, player.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestMockPlayerRecordsAttempts(t *testing.T) {
	p := player.NewMockPlayer()
	finished := false
	p.OnFinish(func() { finished = true })

	if err := p.Play("a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !p.IsPlaying() {
		t.Fatalf("expected playing")
	}
	p.Finish()
	if !finished || p.IsPlaying() {
		t.Fatalf("expected finish callback and stopped state")
	}

	p.Blocked = true
	if err := p.Play("b"); !errors.Is(err, player.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	played, attempts := p.Snapshot()
	if len(played) != 1 || attempts != 2 {
		t.Fatalf("unexpected record %v %d", played, attempts)
	}
}
