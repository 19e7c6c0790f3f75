package crm

import (
	"context"

	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"
)

// Syncer subscribes to lead outcome events and mirrors them into the CRM.
type Syncer struct {
	client *Client
	log    *logger.Logger
}

func NewSyncer(client *Client, log *logger.Logger) *Syncer {
	return &Syncer{client: client, log: log}
}

// RegisterHandlers subscribes the syncer to the event bus. With no client
// configured it subscribes nothing.
func (s *Syncer) RegisterHandlers(bus events.Bus) {
	if s.client == nil {
		s.log.Info("crm sync disabled: no CRM base url configured")
		return
	}

	bus.Subscribe(events.LeadContacted{}.EventName(), events.HandlerFunc(s.handleLeadContacted))
	bus.Subscribe(events.LeadFailed{}.EventName(), events.HandlerFunc(s.handleLeadFailed))
}

func (s *Syncer) handleLeadContacted(ctx context.Context, event events.Event) error {
	contacted, ok := event.(events.LeadContacted)
	if !ok {
		return nil
	}

	err := s.client.PushStatus(ctx, contacted.LeadID, "contacted", map[string]any{
		"channel":  contacted.Channel,
		"touch_id": contacted.TouchID.String(),
	})
	if err != nil {
		s.log.Warn("crm push failed", "lead_id", contacted.LeadID.String(), "status", "contacted", "error", err)
	}
	return nil
}

func (s *Syncer) handleLeadFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(events.LeadFailed)
	if !ok {
		return nil
	}

	err := s.client.PushStatus(ctx, failed.LeadID, "failed", map[string]any{
		"channel": failed.Channel,
		"reason":  failed.Reason,
	})
	if err != nil {
		s.log.Warn("crm push failed", "lead_id", failed.LeadID.String(), "status", "failed", "error", err)
	}
	return nil
}
