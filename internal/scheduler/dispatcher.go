package scheduler

import (
	"context"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Dispatcher enqueues one cycle task per enabled channel on a fixed
// interval. It only schedules work; the asynq worker does the sending, so
// any number of dispatcher instances can run without doubling sends.
type Dispatcher struct {
	client   CycleEnqueuer
	channels []domain.Channel
	interval time.Duration
	log      *logger.Logger
}

func NewDispatcher(client CycleEnqueuer, channels []domain.Channel, cfg config.SchedulerConfig, log *logger.Logger) *Dispatcher {
	interval := cfg.GetDispatchInterval()
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &Dispatcher{
		client:   client,
		channels: channels,
		interval: interval,
		log:      log,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || len(d.channels) == 0 {
		return
	}

	d.dispatch(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) {
	for _, channel := range d.channels {
		err := d.client.EnqueueOutreachCycle(ctx, OutreachCyclePayload{Channel: string(channel)})
		if err != nil {
			d.log.Warn("cycle enqueue failed", "channel", string(channel), "error", err)
		}
	}
}
