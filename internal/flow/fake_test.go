package flow_test

import (
	"context"
	"sync"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/model"
)

var pngImage = api.ImageFile{
	Name: "photo.png",
	Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"),
}

// fakeService 可编排的后端
type fakeService struct {
	upload   func(api.ImageFile) (*api.UploadResult, error)
	generate func(model.GeneratePayload) (*model.Card, error)
	chat     func(api.ChatRequest) (*api.ChatResult, error)

	mu       sync.Mutex
	calls    []string
	payloads []model.GeneratePayload
	chats    []api.ChatRequest
}

func (f *fakeService) UploadImage(_ context.Context, file api.ImageFile) (*api.UploadResult, error) {
	f.record("upload")
	return f.upload(file)
}

func (f *fakeService) GenerateCard(_ context.Context, payload model.GeneratePayload) (*model.Card, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "generate")
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return f.generate(payload)
}

func (f *fakeService) ChatWithCard(_ context.Context, req api.ChatRequest) (*api.ChatResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "chat")
	f.chats = append(f.chats, req)
	f.mu.Unlock()
	return f.chat(req)
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeService) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeService) chatRequests() []api.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ChatRequest(nil), f.chats...)
}

func uploads(urls ...string) func(api.ImageFile) (*api.UploadResult, error) {
	var mu sync.Mutex
	i := 0
	return func(api.ImageFile) (*api.UploadResult, error) {
		mu.Lock()
		defer mu.Unlock()
		url := urls[i%len(urls)]
		i++
		return &api.UploadResult{URL: url}, nil
	}
}
