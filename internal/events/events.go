// Package events re-exports the platform event bus and defines the outreach
// domain events exchanged between modules.
package events

import (
	"time"

	platformevents "outreach_backend/platform/events"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Bus is a type alias to the platform event bus interface.
type Bus = platformevents.Bus

// Event is a type alias to the platform event interface.
type Event = platformevents.Event

// Handler is a type alias to the platform event handler.
type Handler = platformevents.Handler

// HandlerFunc is a type alias to the platform handler adapter.
type HandlerFunc = platformevents.HandlerFunc

// BaseEvent is a type alias to the platform base event.
type BaseEvent = platformevents.BaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// LeadContacted fires when a send succeeds and the lead moves to contacted.
type LeadContacted struct {
	BaseEvent
	LeadID  uuid.UUID
	Channel string
	TouchID uuid.UUID
}

// EventName implements Event.
func (LeadContacted) EventName() string { return "lead.contacted" }

// LeadFailed fires when a lead moves to failed, either on a permanent
// rejection or after exhausting its send attempts.
type LeadFailed struct {
	BaseEvent
	LeadID  uuid.UUID
	Channel string
	Reason  string
}

// EventName implements Event.
func (LeadFailed) EventName() string { return "lead.failed" }

// TouchRecorded fires when the ledger records an outbound attempt.
type TouchRecorded struct {
	BaseEvent
	TouchID uuid.UUID
	LeadID  uuid.UUID
	Channel string
	Status  string
}

// EventName implements Event.
func (TouchRecorded) EventName() string { return "touch.recorded" }

// StaleClaimsReleased fires after a sweeper run that reclaimed leads.
type StaleClaimsReleased struct {
	BaseEvent
	Released  int64
	OlderThan time.Duration
}

// EventName implements Event.
func (StaleClaimsReleased) EventName() string { return "leads.stale_claims_released" }
