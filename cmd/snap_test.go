package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/model"
)

func sampleResult() snapResult {
	card := api.CannedCard()
	return snapResult{
		ImageURL:       "blob:snapopedia/1/leaf.png",
		UserPreference: "Nature Watch",
		Card:           &card,
		ConversationID: "mock-conv-id",
		Chat: []snapMessage{
			{Role: model.RoleUser, Content: "How long?", Status: model.StatusConfirmed},
			{Role: model.RoleAssistant, Content: api.CannedChat().Answer, Status: model.StatusConfirmed},
		},
	}
}

func TestWriteSnapResultText(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSnapResult(&buf, "text", sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{api.CannedCard().Title, "Cells under a microscope", "Q: How long?", "A: Mitosis"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSnapResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSnapResult(&buf, "json", sampleResult()); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["conversation_id"] != "mock-conv-id" {
		t.Errorf("conversation_id = %v", got["conversation_id"])
	}
	card, _ := got["card"].(map[string]any)
	if card["title"] != api.CannedCard().Title {
		t.Errorf("card = %v", card)
	}
}

func TestWriteSnapResultYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSnapResult(&buf, "yaml", sampleResult()); err != nil {
		t.Fatal(err)
	}
	var got snapResult
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got.Card == nil || got.Card.Title != api.CannedCard().Title || len(got.Chat) != 2 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestReadImageFromStdin(t *testing.T) {
	file, err := readImage("-", strings.NewReader("data"))
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "stdin" || string(file.Data) != "data" {
		t.Errorf("file = %+v", file)
	}
}
