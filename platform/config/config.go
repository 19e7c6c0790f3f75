// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for the operator API middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDispatchInterval() time.Duration
}

// OutreachConfig provides settings for the outreach engine.
type OutreachConfig interface {
	GetClaimBatchSize() int
	GetSendTimeout() time.Duration
	GetSendConcurrency() int
	GetSendRatePerSecond() float64
	GetRetryCount() int
	GetRetryBaseDelay() time.Duration
	GetMaxSendAttempts() int
	GetCooldown(channel string) time.Duration
	GetEmailSubjectTemplate() string
	GetEmailBodyTemplate() string
	GetSMSBodyTemplate() string
	GetVoiceScriptTemplate() string
}

// SweeperConfig provides settings for the stale-claim recovery sweeper.
type SweeperConfig interface {
	GetStaleClaimTimeout() time.Duration
	GetSweepInterval() time.Duration
}

// EmailSenderConfig provides SMTP settings for the email channel.
type EmailSenderConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMSSenderConfig provides gateway settings for the SMS channel.
type SMSSenderConfig interface {
	GetSMSEnabled() bool
	GetSMSGatewayURL() string
	GetSMSAPIKey() string
}

// VoiceSenderConfig provides settings for the voice-agent channel.
type VoiceSenderConfig interface {
	GetVoiceEnabled() bool
	GetVoiceAPIURL() string
	GetVoiceAPIKey() string
	GetVoiceAgentID() string
}

// CRMConfig provides settings for the CRM sync client.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMAPIKey() string
	IsCRMEnabled() bool
}

// Channel name constants shared with the domain layer. Duplicated here so the
// platform layer stays free of domain imports.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelVoice = "voice"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values, loaded once at startup.
// Components receive the narrow interface they need; nothing reads the
// environment after Load returns.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string
	CORSAllowAll    bool
	CORSOrigins     []string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	DispatchInterval time.Duration

	ClaimBatchSize    int
	SendTimeout       time.Duration
	SendConcurrency   int
	SendRatePerSecond float64
	RetryCount        int
	RetryBaseDelay    time.Duration
	MaxSendAttempts   int
	CooldownEmail     time.Duration
	CooldownSMS       time.Duration
	CooldownVoice     time.Duration

	StaleClaimTimeout time.Duration
	SweepInterval     time.Duration

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	SMSEnabled    bool
	SMSGatewayURL string
	SMSAPIKey     string

	VoiceEnabled bool
	VoiceAPIURL  string
	VoiceAPIKey  string
	VoiceAgentID string

	CRMBaseURL string
	CRMAPIKey  string

	EmailSubjectTemplate string
	EmailBodyTemplate    string
	SMSBodyTemplate      string
	VoiceScriptTemplate  string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string            { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int             { return c.AsynqConcurrency }
func (c *Config) GetDispatchInterval() time.Duration   { return c.DispatchInterval }

// OutreachConfig implementation
func (c *Config) GetClaimBatchSize() int             { return c.ClaimBatchSize }
func (c *Config) GetSendTimeout() time.Duration      { return c.SendTimeout }
func (c *Config) GetSendConcurrency() int            { return c.SendConcurrency }
func (c *Config) GetSendRatePerSecond() float64      { return c.SendRatePerSecond }
func (c *Config) GetRetryCount() int                 { return c.RetryCount }
func (c *Config) GetRetryBaseDelay() time.Duration   { return c.RetryBaseDelay }
func (c *Config) GetMaxSendAttempts() int            { return c.MaxSendAttempts }
func (c *Config) GetEmailSubjectTemplate() string    { return c.EmailSubjectTemplate }
func (c *Config) GetEmailBodyTemplate() string       { return c.EmailBodyTemplate }
func (c *Config) GetSMSBodyTemplate() string         { return c.SMSBodyTemplate }
func (c *Config) GetVoiceScriptTemplate() string     { return c.VoiceScriptTemplate }

// GetCooldown returns the per-channel cooldown window.
func (c *Config) GetCooldown(channel string) time.Duration {
	switch channel {
	case ChannelEmail:
		return c.CooldownEmail
	case ChannelSMS:
		return c.CooldownSMS
	case ChannelVoice:
		return c.CooldownVoice
	default:
		return c.CooldownEmail
	}
}

// SweeperConfig implementation
func (c *Config) GetStaleClaimTimeout() time.Duration { return c.StaleClaimTimeout }
func (c *Config) GetSweepInterval() time.Duration     { return c.SweepInterval }

// EmailSenderConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SMSSenderConfig implementation
func (c *Config) GetSMSEnabled() bool      { return c.SMSEnabled }
func (c *Config) GetSMSGatewayURL() string { return c.SMSGatewayURL }
func (c *Config) GetSMSAPIKey() string     { return c.SMSAPIKey }

// VoiceSenderConfig implementation
func (c *Config) GetVoiceEnabled() bool   { return c.VoiceEnabled }
func (c *Config) GetVoiceAPIURL() string  { return c.VoiceAPIURL }
func (c *Config) GetVoiceAPIKey() string  { return c.VoiceAPIKey }
func (c *Config) GetVoiceAgentID() string { return c.VoiceAgentID }

// CRMConfig implementation
func (c *Config) GetCRMBaseURL() string { return c.CRMBaseURL }
func (c *Config) GetCRMAPIKey() string  { return c.CRMAPIKey }
func (c *Config) IsCRMEnabled() bool    { return c.CRMBaseURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:    strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "outreach"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DispatchInterval: mustDuration(getEnv("DISPATCH_INTERVAL", "30s")),

		ClaimBatchSize:    mustInt(getEnv("CLAIM_BATCH_SIZE", "50")),
		SendTimeout:       mustDuration(getEnv("SEND_TIMEOUT", "30s")),
		SendConcurrency:   mustInt(getEnv("SEND_CONCURRENCY", "8")),
		SendRatePerSecond: mustFloat(getEnv("SEND_RATE_PER_SECOND", "2")),
		RetryCount:        mustInt(getEnv("SEND_RETRY_COUNT", "3")),
		RetryBaseDelay:    mustDuration(getEnv("SEND_RETRY_BASE_DELAY", "500ms")),
		MaxSendAttempts:   mustInt(getEnv("SEND_MAX_ATTEMPTS", "3")),
		CooldownEmail:     mustDuration(getEnv("COOLDOWN_EMAIL", "72h")),
		CooldownSMS:       mustDuration(getEnv("COOLDOWN_SMS", "24h")),
		CooldownVoice:     mustDuration(getEnv("COOLDOWN_VOICE", "48h")),

		StaleClaimTimeout: mustDuration(getEnv("STALE_CLAIM_TIMEOUT", "10m")),
		SweepInterval:     mustDuration(getEnv("SWEEP_INTERVAL", "1m")),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Outreach"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		SMSEnabled:    strings.EqualFold(getEnv("SMS_ENABLED", "true"), "true"),
		SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
		SMSAPIKey:     getEnv("SMS_API_KEY", ""),

		VoiceEnabled: strings.EqualFold(getEnv("VOICE_ENABLED", "true"), "true"),
		VoiceAPIURL:  getEnv("VOICE_API_URL", ""),
		VoiceAPIKey:  getEnv("VOICE_API_KEY", ""),
		VoiceAgentID: getEnv("VOICE_AGENT_ID", ""),

		CRMBaseURL: getEnv("CRM_BASE_URL", ""),
		CRMAPIKey:  getEnv("CRM_API_KEY", ""),

		EmailSubjectTemplate: getEnv("EMAIL_SUBJECT_TEMPLATE", "Quick question for {company}"),
		EmailBodyTemplate:    getEnv("EMAIL_BODY_TEMPLATE", "Hi, I came across {company} and wanted to reach out."),
		SMSBodyTemplate:      getEnv("SMS_BODY_TEMPLATE", "Hi, this is a quick note for {company}. Reply STOP to opt out."),
		VoiceScriptTemplate:  getEnv("VOICE_SCRIPT_TEMPLATE", "You are calling on behalf of our team about {company}."),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.ClaimBatchSize < 1 {
		return nil, fmt.Errorf("CLAIM_BATCH_SIZE must be at least 1")
	}
	if cfg.StaleClaimTimeout <= 0 {
		return nil, fmt.Errorf("STALE_CLAIM_TIMEOUT must be positive")
	}
	if cfg.MaxSendAttempts < 1 {
		return nil, fmt.Errorf("SEND_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
