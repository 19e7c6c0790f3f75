package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"outreach_backend/platform/logger"
)

type fakeReleaser struct {
	mu        sync.Mutex
	released  int64
	err       error
	calls     int
	olderThan time.Duration
}

func (f *fakeReleaser) ReleaseStale(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.olderThan = olderThan
	return f.released, f.err
}

func (f *fakeReleaser) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sweeperConfig struct {
	interval time.Duration
	timeout  time.Duration
}

func (c sweeperConfig) GetSweepInterval() time.Duration     { return c.interval }
func (c sweeperConfig) GetStaleClaimTimeout() time.Duration { return c.timeout }

func TestSweepReleasesWithConfiguredTimeout(t *testing.T) {
	releaser := &fakeReleaser{released: 3}
	s := New(releaser, nil, sweeperConfig{interval: time.Minute, timeout: 10 * time.Minute}, logger.New("development"))

	if got := s.Sweep(context.Background()); got != 3 {
		t.Fatalf("Sweep = %d, want 3", got)
	}
	if releaser.olderThan != 10*time.Minute {
		t.Fatalf("olderThan = %v, want 10m", releaser.olderThan)
	}
}

func TestSweepSwallowsStorageErrors(t *testing.T) {
	releaser := &fakeReleaser{err: errors.New("connection refused")}
	s := New(releaser, nil, sweeperConfig{interval: time.Minute, timeout: 10 * time.Minute}, logger.New("development"))

	if got := s.Sweep(context.Background()); got != 0 {
		t.Fatalf("Sweep = %d, want 0 on storage error", got)
	}
}

func TestRunSweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	releaser := &fakeReleaser{}
	s := New(releaser, nil, sweeperConfig{interval: time.Hour, timeout: 10 * time.Minute}, logger.New("development"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for releaser.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Run never swept")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestDefaultsAppliedWhenConfigUnset(t *testing.T) {
	releaser := &fakeReleaser{}
	s := New(releaser, nil, sweeperConfig{}, logger.New("development"))

	if s.interval != time.Minute {
		t.Fatalf("interval = %v, want 1m default", s.interval)
	}
	if s.timeout != 10*time.Minute {
		t.Fatalf("timeout = %v, want 10m default", s.timeout)
	}
}
