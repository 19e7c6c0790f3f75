// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// WorkerTokenKey is the context key for the outreach worker claim token
	WorkerTokenKey contextKey = "worker_token"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if token, ok := ctx.Value(WorkerTokenKey).(string); ok && token != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("worker_token", token))}
	}

	return newLogger
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// SendFailure logs a failed channel send for a lead.
func (l *Logger) SendFailure(leadID, channel, kind string, err error) {
	l.Warn("send_failure",
		slog.String("lead_id", leadID),
		slog.String("channel", channel),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}

// SweepResult logs a recovery sweeper run.
func (l *Logger) SweepResult(released int64) {
	if released > 0 {
		l.Warn("stale_claims_released", slog.Int64("released", released))
	} else {
		l.Debug("stale_claims_released", slog.Int64("released", released))
	}
}

// WebhookRejected logs a rejected provider callback.
func (l *Logger) WebhookRejected(provider, reason, clientIP string) {
	l.Warn("webhook_rejected",
		slog.String("provider", provider),
		slog.String("reason", reason),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
