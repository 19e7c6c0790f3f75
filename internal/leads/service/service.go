// Package service implements the operator-facing lead operations: ingest,
// manual status transitions, reset, and stats.
package service

import (
	"context"
	"errors"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/touches"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
)

// LeadRepo is the slice of the lead repository the service uses. Claiming
// and completion belong to the engine, not the operator API.
type LeadRepo interface {
	Insert(ctx context.Context, p repository.InsertParams) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	Advance(ctx context.Context, leadID uuid.UUID, from, to domain.Status) error
	Reset(ctx context.Context, leadID uuid.UUID) error
	CountByStatus(ctx context.Context) (map[domain.Status]int64, error)
	CountStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TouchReader is the read-only view of the touch ledger the service exposes
// to operators.
type TouchReader interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]touches.Touch, error)
	CountByChannel(ctx context.Context) (map[domain.Channel]int64, error)
}

// Service coordinates lead lifecycle operations for the HTTP API.
type Service struct {
	repo         LeadRepo
	touches      TouchReader
	staleTimeout time.Duration
	log          *logger.Logger
}

func New(repo LeadRepo, touchReader TouchReader, staleTimeout time.Duration, log *logger.Logger) *Service {
	if staleTimeout <= 0 {
		staleTimeout = 10 * time.Minute
	}
	return &Service{
		repo:         repo,
		touches:      touchReader,
		staleTimeout: staleTimeout,
		log:          log,
	}
}

// IngestParams holds the fields accepted at lead ingestion.
type IngestParams struct {
	Company  string
	Email    *string
	Phone    *string
	Research *domain.Research
}

// Ingest validates and creates a lead in status new. The phone number is
// normalized to E.164 at the door so every downstream consumer can rely on
// the stored form.
func (s *Service) Ingest(ctx context.Context, p IngestParams) (domain.Lead, error) {
	if p.Phone != nil && *p.Phone != "" {
		normalized, err := phone.Validate(*p.Phone)
		if err != nil {
			return domain.Lead{}, apperr.Validation("invalid phone number").WithOp("leads.ingest")
		}
		p.Phone = &normalized
	} else {
		p.Phone = nil
	}
	if p.Email != nil && *p.Email == "" {
		p.Email = nil
	}

	if p.Email == nil && p.Phone == nil {
		return domain.Lead{}, apperr.Validation("lead needs an email or a phone number").WithOp("leads.ingest")
	}

	if p.Research != nil && p.Research.SchemaVersion == 0 {
		p.Research.SchemaVersion = domain.ResearchSchemaVersion
	}

	lead, err := s.repo.Insert(ctx, repository.InsertParams{
		Company:  p.Company,
		Email:    p.Email,
		Phone:    p.Phone,
		Research: p.Research,
	})
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "failed to store lead", err)
	}

	s.log.Info("lead ingested", "lead_id", lead.ID.String(), "company", lead.Company)
	return lead, nil
}

// Get returns a lead with its touch history.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (domain.Lead, []touches.Touch, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return domain.Lead{}, nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return domain.Lead{}, nil, apperr.Wrap(apperr.KindUnavailable, "failed to load lead", err)
	}

	history, err := s.touches.ListByLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, nil, apperr.Wrap(apperr.KindUnavailable, "failed to load touches", err)
	}
	return lead, history, nil
}

// Advance applies an operator transition. The transition table is the
// single source of truth; in-flight statuses are only reachable through the
// engine's claim.
func (s *Service) Advance(ctx context.Context, leadID uuid.UUID, target domain.Status) (domain.Lead, error) {
	if !target.IsValid() {
		return domain.Lead{}, apperr.Validation("unknown status " + string(target))
	}
	if target.IsInFlight() {
		return domain.Lead{}, apperr.Validation("in-flight statuses are set by the send pipeline, not operators")
	}

	lead, err := s.repo.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrLeadNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "failed to load lead", err)
	}

	if !lead.Status.CanTransitionTo(target) {
		return domain.Lead{}, apperr.Conflict("cannot transition from " + string(lead.Status) + " to " + string(target))
	}

	if err := s.repo.Advance(ctx, leadID, lead.Status, target); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			// Lost a race with the engine or another operator.
			return domain.Lead{}, apperr.Conflict("lead changed concurrently, reload and retry")
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "failed to advance lead", err)
	}

	return s.repo.GetByID(ctx, leadID)
}

// Reset puts a lead back into rotation from any status, clearing the claim,
// attempts, cooldown, and failure reason. Touch history is preserved, so
// the dedup guard still applies to the retried sends.
func (s *Service) Reset(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	if err := s.repo.Reset(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return domain.Lead{}, apperr.NotFound("lead not found")
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindUnavailable, "failed to reset lead", err)
	}

	s.log.Info("lead reset to ready_to_send", "lead_id", leadID.String())
	return s.repo.GetByID(ctx, leadID)
}

// Stats summarizes the pipeline. Stale-claim and failed counts are the two
// operational alerting signals.
type Stats struct {
	LeadsByStatus    map[domain.Status]int64
	TouchesByChannel map[domain.Channel]int64
	StaleClaims      int64
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindUnavailable, "failed to count leads", err)
	}
	byChannel, err := s.touches.CountByChannel(ctx)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindUnavailable, "failed to count touches", err)
	}
	stale, err := s.repo.CountStaleClaims(ctx, s.staleTimeout)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindUnavailable, "failed to count stale claims", err)
	}

	return Stats{
		LeadsByStatus:    byStatus,
		TouchesByChannel: byChannel,
		StaleClaims:      stale,
	}, nil
}
