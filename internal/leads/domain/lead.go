package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResearchSchemaVersion is the current schema version written into the
// research extension record.
const ResearchSchemaVersion = 1

// Research is the typed extension record attached to a lead at enrichment.
// It replaces ad-hoc JSON metadata probing: consumers check SchemaVersion
// before reading fields added in later versions.
type Research struct {
	SchemaVersion int      `json:"schema_version"`
	Industry      string   `json:"industry,omitempty"`
	CompanySize   int      `json:"company_size,omitempty"`
	Website       string   `json:"website,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	TalkingPoints []string `json:"talking_points,omitempty"`
}

// Lead is a prospective customer tracked through the outreach lifecycle.
// Leads are never deleted; a reset is a status transition that preserves
// the touch history.
type Lead struct {
	ID            uuid.UUID
	Company       string
	Email         *string
	Phone         *string
	Status        Status
	ClaimedAt     *time.Time
	ClaimedBy     *string
	Attempts      int
	CooldownUntil *time.Time
	FailureReason *string
	Research      *Research
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EmailAddress returns the lead's email or an empty string.
func (l *Lead) EmailAddress() string {
	if l.Email == nil {
		return ""
	}
	return *l.Email
}

// PhoneNumber returns the lead's phone or an empty string.
func (l *Lead) PhoneNumber() string {
	if l.Phone == nil {
		return ""
	}
	return *l.Phone
}

// HasContactFor reports whether the lead carries the contact field the
// given channel needs.
func (l *Lead) HasContactFor(channel Channel) bool {
	switch channel {
	case ChannelEmail:
		return l.EmailAddress() != ""
	case ChannelSMS, ChannelVoice:
		return l.PhoneNumber() != ""
	}
	return false
}
