package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"snapopedia-cli/internal/logger"
)

func TestLevelFallback(t *testing.T) {
	if got := logger.New("nonsense", "text").GetLevel(); got != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
	if got := logger.New("debug", "text").GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithOutput(&buf, "info", "json")
	l.WithField("image_url", "blob:x").Info("image uploaded")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if entry["msg"] != "image uploaded" || entry["image_url"] != "blob:x" {
		t.Errorf("entry = %v", entry)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger.NewWithOutput(&buf, "info", "text").Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug should be filtered at info level")
	}
}
