package camera_test

import (
	"context"
	"errors"
	"testing"

	"snapopedia-cli/internal/camera"
)

func TestCaptureWithoutCommand(t *testing.T) {
	for _, cmd := range []string{"", "snapopedia-no-such-camera"} {
		_, err := camera.NewCommandCamera(cmd).Capture(context.Background())
		if !errors.Is(err, camera.ErrUnavailable) {
			t.Fatalf("Capture with %q: expected ErrUnavailable, got %v", cmd, err)
		}
	}
}
