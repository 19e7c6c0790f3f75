// Package outreach implements the lead outreach engine: claiming eligible
// leads, enforcing the dedup cooldown, dispatching channel senders, and
// recording outcomes in the touch ledger.
package outreach

import (
	"context"
	"time"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LastSentReader is the slice of the touch ledger the guard needs.
type LastSentReader interface {
	LastSentAt(ctx context.Context, leadID uuid.UUID, channel domain.Channel) (*time.Time, error)
}

// CooldownConfig provides the per-channel cooldown windows.
type CooldownConfig interface {
	GetCooldown(channel string) time.Duration
}

// Guard prevents a lead from being contacted twice on the same channel
// within the cooldown window. The engine consults it after every claim,
// before every send.
type Guard struct {
	ledger LastSentReader
	cfg    CooldownConfig
	now    func() time.Time
}

// NewGuard creates a dedup guard over the touch ledger.
func NewGuard(ledger LastSentReader, cfg CooldownConfig) *Guard {
	return &Guard{
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Eligible reports whether the lead may be contacted on the channel now.
// When ineligible it also returns the end of the cooldown window so the
// caller can defer the lead instead of re-claiming it every cycle.
func (g *Guard) Eligible(ctx context.Context, leadID uuid.UUID, channel domain.Channel) (bool, time.Time, error) {
	lastSent, err := g.ledger.LastSentAt(ctx, leadID, channel)
	if err != nil {
		return false, time.Time{}, err
	}
	if lastSent == nil {
		return true, time.Time{}, nil
	}

	windowEnd := lastSent.Add(g.cfg.GetCooldown(string(channel)))
	if g.now().Before(windowEnd) {
		return false, windowEnd, nil
	}
	return true, time.Time{}, nil
}
