package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
)

type schedulerConfig struct {
	redisURL string
	interval time.Duration
}

func (c schedulerConfig) GetRedisURL() string                { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool          { return false }
func (c schedulerConfig) GetAsynqQueueName() string          { return "outreach" }
func (c schedulerConfig) GetAsynqConcurrency() int           { return 4 }
func (c schedulerConfig) GetDispatchInterval() time.Duration { return c.interval }

func TestOutreachCyclePayloadRoundTrip(t *testing.T) {
	task, err := NewOutreachCycleTask(OutreachCyclePayload{Channel: "email"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskOutreachCycle {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskOutreachCycle)
	}

	payload, err := ParseOutreachCyclePayload(task)
	if err != nil {
		t.Fatal(err)
	}
	if payload.Channel != "email" {
		t.Fatalf("channel = %q, want email", payload.Channel)
	}
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatal("expected error when redis url is empty")
	}
}

func TestEnqueueOutreachCycleDeduplicatesPerChannel(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(schedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.EnqueueOutreachCycle(ctx, OutreachCyclePayload{Channel: "email"}); err != nil {
		t.Fatal(err)
	}
	// Same channel again while the first task is still queued: the ID
	// conflict is swallowed, not surfaced as an error.
	if err := client.EnqueueOutreachCycle(ctx, OutreachCyclePayload{Channel: "email"}); err != nil {
		t.Fatalf("duplicate enqueue should be a no-op, got %v", err)
	}
	// A different channel is an independent task.
	if err := client.EnqueueOutreachCycle(ctx, OutreachCyclePayload{Channel: "sms"}); err != nil {
		t.Fatal(err)
	}
}

type recordingEnqueuer struct {
	mu       sync.Mutex
	channels []string
}

func (r *recordingEnqueuer) EnqueueOutreachCycle(_ context.Context, payload OutreachCyclePayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, payload.Channel)
	return nil
}

func (r *recordingEnqueuer) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.channels...)
}

func TestDispatcherEnqueuesEveryEnabledChannel(t *testing.T) {
	enq := &recordingEnqueuer{}
	d := NewDispatcher(enq, []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}, schedulerConfig{interval: time.Hour}, logger.New("development"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(enq.snapshot()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("dispatcher enqueued %v, want both channels", enq.snapshot())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	got := enq.snapshot()[:2]
	if got[0] != "email" || got[1] != "sms" {
		t.Fatalf("channels = %v, want [email sms]", got)
	}
}
