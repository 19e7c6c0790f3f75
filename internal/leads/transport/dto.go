// Package transport holds the request/response shapes for the leads HTTP
// API.
package transport

import (
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/touches"
)

type IngestLeadRequest struct {
	Company  string           `json:"company" validate:"required,min=1,max=200"`
	Email    *string          `json:"email" validate:"omitempty,email"`
	Phone    *string          `json:"phone" validate:"omitempty,min=4,max=32"`
	Research *ResearchPayload `json:"research"`
}

type ResearchPayload struct {
	Industry      string   `json:"industry"`
	CompanySize   int      `json:"company_size"`
	Website       string   `json:"website"`
	Summary       string   `json:"summary"`
	TalkingPoints []string `json:"talking_points"`
}

type AdvanceLeadRequest struct {
	Status string `json:"status" validate:"required"`
}

type LeadResponse struct {
	ID            string           `json:"id"`
	Company       string           `json:"company"`
	Email         *string          `json:"email,omitempty"`
	Phone         *string          `json:"phone,omitempty"`
	Status        string           `json:"status"`
	ClaimedAt     *time.Time       `json:"claimed_at,omitempty"`
	Attempts      int              `json:"attempts"`
	CooldownUntil *time.Time       `json:"cooldown_until,omitempty"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	Research      *ResearchPayload `json:"research,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type TouchResponse struct {
	ID                string     `json:"id"`
	Channel           string     `json:"channel"`
	SentAt            time.Time  `json:"sent_at"`
	Status            string     `json:"status"`
	ProviderMessageID *string    `json:"provider_message_id,omitempty"`
	OpenedAt          *time.Time `json:"opened_at,omitempty"`
	RepliedAt         *time.Time `json:"replied_at,omitempty"`
}

type LeadDetailResponse struct {
	Lead    LeadResponse    `json:"lead"`
	Touches []TouchResponse `json:"touches"`
}

type StatsResponse struct {
	LeadsByStatus    map[string]int64 `json:"leads_by_status"`
	TouchesByChannel map[string]int64 `json:"touches_by_channel"`
	StaleClaims      int64            `json:"stale_claims"`
	FailedLeads      int64            `json:"failed_leads"`
}

func ToLeadResponse(lead domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:            lead.ID.String(),
		Company:       lead.Company,
		Email:         lead.Email,
		Phone:         lead.Phone,
		Status:        string(lead.Status),
		ClaimedAt:     lead.ClaimedAt,
		Attempts:      lead.Attempts,
		CooldownUntil: lead.CooldownUntil,
		FailureReason: lead.FailureReason,
		CreatedAt:     lead.CreatedAt,
		UpdatedAt:     lead.UpdatedAt,
	}
	if lead.Research != nil {
		resp.Research = &ResearchPayload{
			Industry:      lead.Research.Industry,
			CompanySize:   lead.Research.CompanySize,
			Website:       lead.Research.Website,
			Summary:       lead.Research.Summary,
			TalkingPoints: lead.Research.TalkingPoints,
		}
	}
	return resp
}

func ToTouchResponses(items []touches.Touch) []TouchResponse {
	out := make([]TouchResponse, 0, len(items))
	for _, touch := range items {
		out = append(out, TouchResponse{
			ID:                touch.ID.String(),
			Channel:           string(touch.Channel),
			SentAt:            touch.SentAt,
			Status:            string(touch.Status),
			ProviderMessageID: touch.ProviderMessageID,
			OpenedAt:          touch.OpenedAt,
			RepliedAt:         touch.RepliedAt,
		})
	}
	return out
}
