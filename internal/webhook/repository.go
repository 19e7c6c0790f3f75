// Package webhook provides the provider callback bounded context. It
// verifies signed delivery/engagement callbacks and applies them to the
// touch ledger.
package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrKeyNotFound = errors.New("webhook key not found")

// Key is a per-provider signing secret. Providers sign the raw request body
// with HMAC-SHA256 using this secret.
type Key struct {
	ID        uuid.UUID
	Provider  string
	Secret    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides data access for webhook signing keys.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateSecret creates a new random signing secret. The secret is shared
// with the provider out of band.
func GenerateSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "whs_" + hex.EncodeToString(bytes), nil
}

// Create stores a signing key for a provider. One active key per provider;
// creating a new one deactivates the old.
func (r *Repository) Create(ctx context.Context, provider, secret string) (Key, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Key{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE webhook_keys SET is_active = false, updated_at = now()
		WHERE provider = $1 AND is_active = true
	`, provider)
	if err != nil {
		return Key{}, err
	}

	var key Key
	err = tx.QueryRow(ctx, `
		INSERT INTO webhook_keys (provider, secret)
		VALUES ($1, $2)
		RETURNING id, provider, secret, is_active, created_at, updated_at
	`, provider, secret).Scan(
		&key.ID, &key.Provider, &key.Secret, &key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	if err != nil {
		return Key{}, err
	}

	return key, tx.Commit(ctx)
}

// GetByProvider retrieves the active signing key for a provider.
func (r *Repository) GetByProvider(ctx context.Context, provider string) (Key, error) {
	var key Key
	err := r.pool.QueryRow(ctx, `
		SELECT id, provider, secret, is_active, created_at, updated_at
		FROM webhook_keys
		WHERE provider = $1 AND is_active = true
	`, provider).Scan(
		&key.ID, &key.Provider, &key.Secret, &key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Key{}, ErrKeyNotFound
	}
	return key, err
}

// Revoke deactivates a signing key.
func (r *Repository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_keys SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
	`, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyNotFound
	}
	return nil
}
