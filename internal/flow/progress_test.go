package flow

import "testing"

func TestNextProgressIsMonotonicAndBelow100(t *testing.T) {
	rs := []float64{0.99, 0.5, 0, 0.999, 0.1, 0.75, 0.999, 0.999, 0.999}
	p := 0.0
	for i := 0; i < 500; i++ {
		next := nextProgress(p, rs[i%len(rs)])
		if next < p {
			t.Fatalf("progress decreased: %v -> %v", p, next)
		}
		if next >= 100 {
			t.Fatalf("progress reached %v before completion", next)
		}
		p = next
	}
	if p != slowPhaseCeil {
		t.Fatalf("expected asymptote %v, got %v", slowPhaseCeil, p)
	}
}

func TestNextProgressStepSizes(t *testing.T) {
	tests := []struct {
		name string
		prev float64
		r    float64
		want float64
	}{
		{"early large step", 10, 0.5, 16},
		{"capped at fast ceiling", 75, 0.9, 80},
		{"slow phase small step", 80, 0.5, 81},
		{"capped at slow ceiling", 96.5, 0.9, 97},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextProgress(tt.prev, tt.r); got != tt.want {
				t.Fatalf("nextProgress(%v, %v) = %v, want %v", tt.prev, tt.r, got, tt.want)
			}
		})
	}
}

func TestNextStatusWraps(t *testing.T) {
	if got := nextStatus(len(StatusLines)-1, len(StatusLines)); got != 0 {
		t.Fatalf("expected wrap to 0, got %d", got)
	}
	if got := nextStatus(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty list, got %d", got)
	}
}
