package shell

import (
	"fmt"
	"regexp"
	"strings"

	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/session"
)

const firstQuestionHint = "Ask the first question, e.g., “Which class does this fit?”"

func (s *Shell) renderScreen() {
	loc := s.Location()
	snap := s.deps.Store.Snapshot()

	fmt.Fprintln(s.out)
	switch loc.Screen {
	case ScreenUpload:
		s.renderUpload(snap)
	case ScreenCard:
		s.renderCard(snap)
		if loc.ChatOpen {
			s.renderChat(snap)
		}
	default:
		s.renderLanding(snap)
	}
}

func (s *Shell) renderLanding(snap session.Session) {
	fmt.Fprintln(s.out, "📷 Snapopedia")
	fmt.Fprintln(s.out, "   Snap a photo, get a learning card.")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "   go upload      take or pick a photo")
	if snap.HasCard() {
		fmt.Fprintf(s.out, "   card           back to \"%s\"\n", snap.Card.Title)
	}
	if snap.ProcessingPayload != nil {
		fmt.Fprintln(s.out, "   resume         finish the unfinished card")
	}
	fmt.Fprintln(s.out, "   help           all commands")
}

func (s *Shell) renderUpload(snap session.Session) {
	fmt.Fprintln(s.out, "Capture or upload")
	fmt.Fprintln(s.out, "─────────────────────────────────")
	s.renderLenses()
	view := s.deps.Generation.View()
	preview := view.Preview
	if preview == "" {
		preview = snap.ImageURL
	}
	if preview != "" {
		fmt.Fprintf(s.out, "  Photo: %s\n", preview)
	}
	if view.InlineError != "" {
		fmt.Fprintf(s.out, "  ! %s\n", view.InlineError)
	}
	fmt.Fprintln(s.out, "  upload <path> | capture | lens <n|text>")
}

func (s *Shell) renderLenses() {
	current := s.deps.Generation.Preference()
	fmt.Fprintln(s.out, "  Lens:")
	for i, p := range model.Preferences {
		mark := " "
		if p == current {
			mark = "*"
		}
		fmt.Fprintf(s.out, "   %s %d. %s\n", mark, i+1, p)
	}
	if current != "" && !isPreset(current) {
		fmt.Fprintf(s.out, "   * %s\n", current)
	}
}

func (s *Shell) renderCard(snap session.Session) {
	card := snap.Card
	fmt.Fprintln(s.out, card.Title)
	fmt.Fprintf(s.out, "  %s\n", card.Subject())
	fmt.Fprintln(s.out, "─────────────────────────────────")
	if img := card.DisplayImage(snap.ImageURL); img != "" {
		fmt.Fprintf(s.out, "  Image: %s\n", img)
	} else {
		fmt.Fprintln(s.out, "  (no image)")
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, wrap(card.Desc, s.deps.Renderer.Width()-2, "  "))
	fmt.Fprintln(s.out)
	if card.HasNarration() {
		fmt.Fprintln(s.out, "  ♪ narration available: play")
	}
	fmt.Fprintln(s.out, "  chat | share | download [path] | go upload")
}

func (s *Shell) renderChat(snap session.Session) {
	view := s.deps.Chat.View()
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "💬 Chat")
	fmt.Fprintln(s.out, "─────────────────────────────────")
	if len(snap.ChatHistory) == 0 {
		fmt.Fprintf(s.out, "  %s\n", firstQuestionHint)
	}
	for i, msg := range snap.ChatHistory {
		s.renderMessage(i+1, msg)
	}
	if view.Error != "" {
		fmt.Fprintf(s.out, "  ! %s\n", view.Error)
	}
	audio := "off"
	if view.NeedAudio {
		audio = "on"
	}
	fmt.Fprintf(s.out, "  Need audio response: %s (audio on|off), close to hide\n", audio)
}

func (s *Shell) renderMessage(n int, msg model.ChatMessage) {
	who := "You"
	if msg.Role == model.RoleAssistant {
		who = "Guide"
	}
	suffix := ""
	switch msg.Status {
	case model.StatusPending:
		suffix = " (sending)"
	case model.StatusFailed:
		suffix = " (failed)"
	}
	if msg.HasAudio() {
		suffix += fmt.Sprintf(" ♪ play %d", n)
		if s.deps.Narrator.Playing() == msg.ID {
			suffix += " (playing)"
		}
	}
	fmt.Fprintf(s.out, "  #%d %s %s%s\n", n, who, msg.TS.Format("15:04"), suffix)
	fmt.Fprintln(s.out, wrap(msg.Content, s.deps.Renderer.Width()-4, "     "))
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  go <location>     open /, /upload, /card or /card?chat=open
  home | card | chat | close
  upload <path>     upload a photo and generate a card
  capture           take a photo with the configured camera
  lens [n|text|none]  choose how the card explains the photo
  retry             resubmit the last photo
  dismiss           close the error overlay
  resume            finish an unfinished card
  ask <question>    ask about the card (plain text works while chat is open)
  audio on|off      whether answers come with narration
  play [n]          play or pause the card narration or message n
  stop              stop narration
  share             print the card text
  download [path]   save the card image
  reset             start over
  quit`)
}

// ShareText 分享内容：标题与正文
func ShareText(card *model.Card) string {
	return card.Title + "\n" + card.Desc
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)

// DefaultDownloadName 根据卡片标题生成文件名
func DefaultDownloadName(card *model.Card) string {
	name := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(card.Title), "-"), "-")
	if name == "" {
		name = "snapopedia-card"
	}
	return name + ".jpg"
}

func isPreset(p string) bool {
	for _, v := range model.Preferences {
		if v == p {
			return true
		}
	}
	return false
}

// wrap 按宽度折行
func wrap(text string, width int, indent string) string {
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	for pi, para := range strings.Split(text, "\n") {
		if pi > 0 {
			b.WriteString("\n")
		}
		line := indent
		for _, word := range strings.Fields(para) {
			if len(line) > len(indent) && len(line)+1+len(word) > width {
				b.WriteString(line + "\n")
				line = indent
			}
			if len(line) > len(indent) {
				line += " "
			}
			line += word
		}
		b.WriteString(line)
	}
	return b.String()
}
