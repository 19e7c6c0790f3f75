// Package sweeper provides the stale-claim recovery sweeper. A worker that
// crashes mid-send leaves its leads claimed in an in-flight status forever;
// the sweeper periodically returns those claims to the retryable pool so no
// failure path can strand a lead.
package sweeper

import (
	"context"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// StaleReleaser is the slice of the lead repository the sweeper needs.
type StaleReleaser interface {
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Sweeper periodically releases stale claims.
type Sweeper struct {
	store    StaleReleaser
	bus      events.Bus
	log      *logger.Logger
	interval time.Duration
	timeout  time.Duration
}

// New creates a sweeper from configuration.
func New(store StaleReleaser, bus events.Bus, cfg config.SweeperConfig, log *logger.Logger) *Sweeper {
	interval := cfg.GetSweepInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.GetStaleClaimTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	return &Sweeper{
		store:    store,
		bus:      bus,
		log:      log,
		interval: interval,
		timeout:  timeout,
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single release pass and returns the number of reclaimed
// leads.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	released, err := s.store.ReleaseStale(ctx, s.timeout)
	if err != nil {
		s.log.DatabaseError("release stale claims", err)
		return 0
	}

	s.log.SweepResult(released)
	if released > 0 && s.bus != nil {
		s.bus.Publish(ctx, events.StaleClaimsReleased{
			BaseEvent: events.NewBaseEvent(),
			Released:  released,
			OlderThan: s.timeout,
		})
	}
	return released
}
