package shell_test

import (
	"testing"

	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/session"
	"snapopedia-cli/internal/shell"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want shell.Location
	}{
		{"/", shell.Home},
		{"", shell.Home},
		{"/upload", shell.Upload},
		{"upload", shell.Upload},
		{"/card", shell.Card},
		{"/card?chat=open", shell.Chat},
		{"/card?chat=closed", shell.Card},
		{"/settings", shell.Home},
		{"/processing", shell.Home},
	}
	for _, tt := range tests {
		if got := shell.Parse(tt.raw); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLocationRoundTrip(t *testing.T) {
	for _, loc := range []shell.Location{shell.Home, shell.Upload, shell.Card, shell.Chat} {
		if got := shell.Parse(loc.String()); got != loc {
			t.Errorf("round trip of %s gave %v", loc, got)
		}
	}
}

func TestResolveRedirectsCardWithoutCard(t *testing.T) {
	empty := session.Session{}
	if got := shell.Resolve(shell.Chat, empty); got != shell.Upload {
		t.Fatalf("expected redirect to upload, got %v", got)
	}
	withCard := session.Session{Card: &model.Card{Title: "t"}}
	if got := shell.Resolve(shell.Chat, withCard); got != shell.Chat {
		t.Fatalf("expected chat, got %v", got)
	}
}
