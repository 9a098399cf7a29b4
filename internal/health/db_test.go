package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct {
	err   error
	calls int
}

func (f *fakePinger) PingContext(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestDBChecker_HealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
	}{
		{"reachable", nil},
		{"unreachable", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePinger{err: tt.pingErr}
			checker := NewDBChecker(p)

			err := checker.HealthCheck(context.Background())
			if !errors.Is(err, tt.pingErr) {
				t.Errorf("HealthCheck() error = %v, want %v", err, tt.pingErr)
			}
			if p.calls != 1 {
				t.Errorf("expected 1 ping, got %d", p.calls)
			}
		})
	}
}
