package stubserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"snapopedia-cli/internal/stubserver"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, opts stubserver.Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(stubserver.New(opts).Router())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, baseURL string, data []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(data)
	w.Close()

	resp, err := http.Post(baseURL+"/api/v1/images/upload", w.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newServer(t, stubserver.Options{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUploadServesImageBack(t *testing.T) {
	srv := newServer(t, stubserver.Options{})

	resp := upload(t, srv.URL, pngHeader)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || !strings.HasPrefix(out.URL, srv.URL+"/api/v1/images/") {
		t.Fatalf("unexpected upload response: %+v", out)
	}

	img, err := http.Get(out.URL)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	defer img.Body.Close()
	data, _ := io.ReadAll(img.Body)
	if !bytes.Equal(data, pngHeader) {
		t.Fatalf("image bytes differ")
	}
	if ct := img.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := newServer(t, stubserver.Options{})
	resp := upload(t, srv.URL, []byte("just some text"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGenerateFailureUsesEnvelope(t *testing.T) {
	srv := newServer(t, stubserver.Options{GenerateError: "Generation failed"})

	resp, err := http.Post(srv.URL+"/api/v1/cards/generate", "application/json", strings.NewReader(`{"image_url":"u1"}`))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK || out.Success || out.Message != "Generation failed" {
		t.Fatalf("unexpected response %d %+v", resp.StatusCode, out)
	}
}

func TestChatEchoesConversationID(t *testing.T) {
	srv := newServer(t, stubserver.Options{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"first turn", `{"card_context":"c","question":"q","need_audio":false}`, "mock-conv-id"},
		{"follow-up", `{"card_context":"c","question":"q","conversation_id":"conv-9","need_audio":false}`, "conv-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/chat", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("chat: %v", err)
			}
			defer resp.Body.Close()
			var out struct {
				ConversationID string `json:"conversation_id"`
				Answer         string `json:"answer"`
			}
			json.NewDecoder(resp.Body).Decode(&out)
			if out.ConversationID != tt.want || out.Answer == "" {
				t.Fatalf("unexpected chat response: %+v", out)
			}
		})
	}
}
