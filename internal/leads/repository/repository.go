// Package repository provides data access for leads. It is the single
// mutation gateway for lead rows: claiming, completion, requeueing, and
// stale-claim release all go through the narrow contract defined here, so
// concurrent workers coordinate only through the database.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrLeadNotFound is returned when no lead matches the given ID.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrNotClaimed is returned when a completion or requeue targets a lead
	// that is not currently claimed by the caller's token. This guards
	// against a stale-claim release racing a slow worker.
	ErrNotClaimed = errors.New("lead not claimed by this worker")
)

const leadColumns = `id, company, email, phone, status, claimed_at, claimed_by,
	attempts, cooldown_until, failure_reason, research, created_at, updated_at`

// Repository provides data access for lead rows.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertParams holds the fields for lead ingestion.
type InsertParams struct {
	Company  string
	Email    *string
	Phone    *string
	Research *domain.Research
}

// Insert creates a lead with status new and returns it.
func (r *Repository) Insert(ctx context.Context, p InsertParams) (domain.Lead, error) {
	research, err := marshalResearch(p.Research)
	if err != nil {
		return domain.Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (company, email, phone, status, research)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+leadColumns,
		p.Company, p.Email, p.Phone, string(domain.StatusNew), research,
	)
	return scanLead(row)
}

// GetByID returns a single lead.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrLeadNotFound
	}
	return lead, err
}

// ClaimBatch atomically claims up to limit eligible leads for the given
// channel: status ready_to_send, unclaimed, outside any cooldown, and
// carrying the contact field the channel needs. Claimed rows move to the
// channel's in-flight status with claimed_at/claimed_by set. FOR UPDATE SKIP
// LOCKED guarantees two concurrent callers never claim the same row.
func (r *Repository) ClaimBatch(ctx context.Context, channel domain.Channel, limit int, claimToken string) ([]domain.Lead, error) {
	if limit < 1 {
		limit = 50
	}
	inFlight := channel.InFlightStatus()
	if inFlight == "" {
		return nil, fmt.Errorf("unknown channel %q", channel)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM leads
		WHERE status = 'ready_to_send'
		  AND claimed_at IS NULL
		  AND (cooldown_until IS NULL OR cooldown_until <= now())
		  AND `+contactPredicate(channel)+`
		ORDER BY updated_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE leads l
	SET status = $2, claimed_at = now(), claimed_by = $3, updated_at = now()
	FROM cte
	WHERE l.id = cte.id
	RETURNING l.id, l.company, l.email, l.phone, l.status, l.claimed_at, l.claimed_by,
		l.attempts, l.cooldown_until, l.failure_reason, l.research, l.created_at, l.updated_at`,
		limit, string(inFlight), claimToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return leads, nil
}

// Complete clears the claim and sets the resulting status. It only matches
// rows claimed by claimToken; anything else returns ErrNotClaimed so a
// worker whose claim was released by the sweeper cannot overwrite the
// lead's new state.
func (r *Repository) Complete(ctx context.Context, leadID uuid.UUID, claimToken string, newStatus domain.Status, failureReason *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, claimed_at = NULL, claimed_by = NULL,
		    failure_reason = $4, updated_at = now()
		WHERE id = $1 AND claimed_by = $2`,
		leadID, claimToken, string(newStatus), failureReason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimed
	}
	return nil
}

// Requeue returns a claimed lead to ready_to_send after a transient send
// failure: the claim is cleared, the attempt counter incremented, and a
// cooldown set so the lead is not immediately re-claimed.
func (r *Repository) Requeue(ctx context.Context, leadID uuid.UUID, claimToken string, cooldownUntil time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = 'ready_to_send', claimed_at = NULL, claimed_by = NULL,
		    attempts = attempts + 1, cooldown_until = $3, updated_at = now()
		WHERE id = $1 AND claimed_by = $2`,
		leadID, claimToken, cooldownUntil,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimed
	}
	return nil
}

// Defer releases a claim without counting an attempt, deferring the lead
// until cooldownUntil. Used when the dedup guard finds a recent touch after
// the claim was taken.
func (r *Repository) Defer(ctx context.Context, leadID uuid.UUID, claimToken string, cooldownUntil time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = 'ready_to_send', claimed_at = NULL, claimed_by = NULL,
		    cooldown_until = $3, updated_at = now()
		WHERE id = $1 AND claimed_by = $2`,
		leadID, claimToken, cooldownUntil,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimed
	}
	return nil
}

// ReleaseStale resets every in-flight lead whose claim is older than the
// threshold back to ready_to_send, clearing the claim fields. This is the
// only operation allowed to override another worker's claim; it exists to
// recover leads stranded by crashed workers.
func (r *Repository) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = 'ready_to_send', claimed_at = NULL, claimed_by = NULL, updated_at = now()
		WHERE status IN ('sending_email', 'sending_sms', 'calling')
		  AND claimed_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Advance applies an operator status transition. The transition is validated
// in SQL against the current status so concurrent updates cannot produce an
// illegal jump; the caller pre-validates with domain.CanTransitionTo for a
// friendly error.
func (r *Repository) Advance(ctx context.Context, leadID uuid.UUID, from, to domain.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2 AND claimed_at IS NULL`,
		leadID, string(from), string(to),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Reset returns a lead to ready_to_send regardless of current status,
// clearing claim fields, attempts, cooldown, and failure reason. Touch
// history is untouched; a reset is a transition, never a deletion.
func (r *Repository) Reset(ctx context.Context, leadID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = 'ready_to_send', claimed_at = NULL, claimed_by = NULL,
		    attempts = 0, cooldown_until = NULL, failure_reason = NULL, updated_at = now()
		WHERE id = $1`,
		leadID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// CountByStatus returns lead counts keyed by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.Status(status)] = count
	}
	return counts, rows.Err()
}

// CountStaleClaims returns the number of in-flight leads whose claim is
// older than the threshold. A growing value is an alerting signal.
func (r *Repository) CountStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM leads
		WHERE status IN ('sending_email', 'sending_sms', 'calling')
		  AND claimed_at < $1`,
		cutoff,
	).Scan(&count)
	return count, err
}

func contactPredicate(channel domain.Channel) string {
	if channel == domain.ChannelEmail {
		return "email IS NOT NULL AND email <> ''"
	}
	return "phone IS NOT NULL AND phone <> ''"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var lead domain.Lead
	var status string
	var research []byte
	err := row.Scan(
		&lead.ID, &lead.Company, &lead.Email, &lead.Phone, &status,
		&lead.ClaimedAt, &lead.ClaimedBy, &lead.Attempts, &lead.CooldownUntil,
		&lead.FailureReason, &research, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.Status(status)
	if len(research) > 0 {
		var rec domain.Research
		if err := json.Unmarshal(research, &rec); err != nil {
			return domain.Lead{}, fmt.Errorf("decode research: %w", err)
		}
		lead.Research = &rec
	}
	return lead, nil
}

func marshalResearch(rec *domain.Research) ([]byte, error) {
	if rec == nil {
		return nil, nil
	}
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = domain.ResearchSchemaVersion
	}
	return json.Marshal(rec)
}
