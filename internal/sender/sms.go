package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/config"
	"outreach_backend/platform/phone"
)

// SMSSender posts messages to an SMS gateway's JSON API.
type SMSSender struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
}

// NewSMSSender creates an SMSSender. Returns nil when the channel is
// disabled or unconfigured.
func NewSMSSender(cfg config.SMSSenderConfig) *SMSSender {
	if !cfg.GetSMSEnabled() || cfg.GetSMSGatewayURL() == "" {
		return nil
	}

	return &SMSSender{
		baseURL: strings.TrimRight(cfg.GetSMSGatewayURL(), "/"),
		apiKey:  cfg.GetSMSAPIKey(),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel implements Sender.
func (s *SMSSender) Channel() domain.Channel { return domain.ChannelSMS }

// Send implements Sender. An invalid phone number is a permanent failure.
func (s *SMSSender) Send(ctx context.Context, lead domain.Lead, m Message) (Result, error) {
	normalized, err := phone.Validate(lead.PhoneNumber())
	if err != nil {
		return Result{}, Permanentf("lead %s: %v", lead.ID, err)
	}

	body, err := json.Marshal(smsRequest{To: normalized, Message: m.Body})
	if err != nil {
		return Result{}, Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return Result{}, Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return Result{}, Transient(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, classifyHTTPStatus(resp.StatusCode, string(raw))
	}

	var parsed smsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, Transient(fmt.Errorf("decode gateway response: %w", err))
	}

	return Result{ProviderMessageID: parsed.MessageID}, nil
}
