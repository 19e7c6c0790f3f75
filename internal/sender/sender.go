// Package sender provides the channel sender adapters: email over SMTP, and
// SMS/voice over provider HTTP APIs. The coordinator only sees the Sender
// interface and the transient/permanent error taxonomy; provider request and
// response formats stay inside this package.
package sender

import (
	"context"
	"errors"
	"fmt"
	"net"

	"outreach_backend/internal/leads/domain"
)

// Message is the channel-agnostic content of one outreach attempt.
type Message struct {
	Subject string
	Body    string
}

// Result is returned by a successful send.
type Result struct {
	ProviderMessageID string
}

// Sender dispatches one message to one lead on a single channel.
type Sender interface {
	Channel() domain.Channel
	Send(ctx context.Context, lead domain.Lead, msg Message) (Result, error)
}

// TransientError marks a failure worth retrying: timeouts, rate limits,
// provider 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient send error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that will not succeed on retry: invalid
// contact info or a provider-side permanent rejection.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent send error: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Permanent wraps err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Transientf is Transient with formatting.
func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// Permanentf is Permanent with formatting.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is retryable. Context deadline expiry and
// network timeouts count as transient even when unwrapped, and unclassified
// errors default to transient so an unexpected provider failure never
// permanently fails a lead.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return true
}

// IsPermanent reports whether err is a permanent failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// classifyHTTPStatus maps a provider HTTP status to the error taxonomy:
// 5xx and 429 are transient, other 4xx permanent.
func classifyHTTPStatus(status int, body string) error {
	switch {
	case status >= 500 || status == 429:
		return Transientf("provider returned %d: %s", status, body)
	default:
		return Permanentf("provider rejected request with %d: %s", status, body)
	}
}
