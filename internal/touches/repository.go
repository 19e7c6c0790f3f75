// Package touches provides the Touch Ledger: an append-only record of every
// outbound contact attempt per channel. Rows are never updated after creation
// except for delivery status and the set-once engagement timestamps written
// by the webhook receiver.
package touches

import (
	"context"
	"errors"
	"time"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeliveryStatus represents the delivery outcome of a touch.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusBounced   DeliveryStatus = "bounced"
	StatusFailed    DeliveryStatus = "failed"
)

// EngagementField names a set-once engagement timestamp on a touch.
type EngagementField string

const (
	FieldOpenedAt  EngagementField = "opened_at"
	FieldRepliedAt EngagementField = "replied_at"
)

var (
	// ErrTouchNotFound is returned when no touch matches the lookup.
	ErrTouchNotFound = errors.New("touch not found")
	// ErrAlreadySet is returned when an engagement update targets a field
	// that already has a value. Providers redeliver webhooks; the first
	// write wins and redeliveries are reported, never silently overwritten.
	ErrAlreadySet = errors.New("engagement field already set")
)

// Touch is one recorded outbound contact attempt.
type Touch struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	Channel           domain.Channel
	SentAt            time.Time
	Status            DeliveryStatus
	ProviderMessageID *string
	OpenedAt          *time.Time
	RepliedAt         *time.Time
	CreatedAt         time.Time
}

// RecordParams holds the fields for appending a touch.
type RecordParams struct {
	LeadID            uuid.UUID
	Channel           domain.Channel
	Status            DeliveryStatus
	ProviderMessageID *string
}

// Repository provides data access for the touch ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new touches repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record appends a touch and returns its ID.
func (r *Repository) Record(ctx context.Context, p RecordParams) (uuid.UUID, error) {
	status := p.Status
	if status == "" {
		status = StatusSent
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO touches (lead_id, channel, sent_at, status, provider_message_id)
		VALUES ($1, $2, now(), $3, $4)
		RETURNING id`,
		p.LeadID, string(p.Channel), string(status), p.ProviderMessageID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetByID returns a single touch.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Touch, error) {
	return r.getOne(ctx, `SELECT id, lead_id, channel, sent_at, status, provider_message_id,
		opened_at, replied_at, created_at FROM touches WHERE id = $1`, id)
}

// GetByProviderMessageID resolves the touch a provider callback refers to.
func (r *Repository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (Touch, error) {
	return r.getOne(ctx, `SELECT id, lead_id, channel, sent_at, status, provider_message_id,
		opened_at, replied_at, created_at FROM touches WHERE provider_message_id = $1`, providerMessageID)
}

// UpdateEngagement sets a previously-null engagement timestamp. A second
// write to the same field returns ErrAlreadySet, making redelivered webhooks
// idempotent.
func (r *Repository) UpdateEngagement(ctx context.Context, touchID uuid.UUID, field EngagementField, ts time.Time) error {
	var query string
	switch field {
	case FieldOpenedAt:
		query = `UPDATE touches SET opened_at = $2 WHERE id = $1 AND opened_at IS NULL`
	case FieldRepliedAt:
		query = `UPDATE touches SET replied_at = $2 WHERE id = $1 AND replied_at IS NULL`
	default:
		return errors.New("unknown engagement field")
	}

	tag, err := r.pool.Exec(ctx, query, touchID, ts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a duplicate delivery from a bad touch ID.
	if _, err := r.GetByID(ctx, touchID); err != nil {
		return err
	}
	return ErrAlreadySet
}

// UpdateDeliveryStatus moves a touch from sent to delivered or bounced based
// on a provider callback. Touches already past sent are left alone.
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, providerMessageID string, status DeliveryStatus) error {
	if status != StatusDelivered && status != StatusBounced && status != StatusFailed {
		return errors.New("invalid delivery status transition")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE touches SET status = $2
		WHERE provider_message_id = $1 AND status = 'sent'`,
		providerMessageID, string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByProviderMessageID(ctx, providerMessageID); err != nil {
			return err
		}
		// Already past sent; redelivered callback, nothing to do.
		return nil
	}
	return nil
}

// LastSentAt returns the most recent sent_at for the lead on the channel,
// or nil when the lead has never been touched there. Failed touches count:
// an attempt went out to the provider either way, and the cooldown window
// applies to attempts, not successes.
func (r *Repository) LastSentAt(ctx context.Context, leadID uuid.UUID, channel domain.Channel) (*time.Time, error) {
	var ts time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT sent_at FROM touches
		WHERE lead_id = $1 AND channel = $2
		ORDER BY sent_at DESC
		LIMIT 1`,
		leadID, string(channel),
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// ListByLead returns the touch history for a lead, newest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Touch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, channel, sent_at, status, provider_message_id,
		       opened_at, replied_at, created_at
		FROM touches
		WHERE lead_id = $1
		ORDER BY sent_at DESC`,
		leadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Touch
	for rows.Next() {
		touch, err := scanTouch(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, touch)
	}
	return results, rows.Err()
}

// CountByChannel returns touch counts keyed by channel.
func (r *Repository) CountByChannel(ctx context.Context) (map[domain.Channel]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT channel, count(*) FROM touches GROUP BY channel`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Channel]int64)
	for rows.Next() {
		var channel string
		var count int64
		if err := rows.Scan(&channel, &count); err != nil {
			return nil, err
		}
		counts[domain.Channel(channel)] = count
	}
	return counts, rows.Err()
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (Touch, error) {
	touch, err := scanTouch(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Touch{}, ErrTouchNotFound
	}
	return touch, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTouch(row rowScanner) (Touch, error) {
	var touch Touch
	var channel, status string
	err := row.Scan(
		&touch.ID, &touch.LeadID, &channel, &touch.SentAt, &status,
		&touch.ProviderMessageID, &touch.OpenedAt, &touch.RepliedAt, &touch.CreatedAt,
	)
	if err != nil {
		return Touch{}, err
	}
	touch.Channel = domain.Channel(channel)
	touch.Status = DeliveryStatus(status)
	return touch, nil
}
