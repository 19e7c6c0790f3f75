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

// VoiceSender starts outbound calls through a voice-agent provider API.
// Starting the call is the send; the call outcome arrives later via the
// provider's webhook, keyed by the returned call ID.
type VoiceSender struct {
	baseURL string
	apiKey  string
	agentID string
	http    *http.Client
}

type voiceRequest struct {
	AgentID string `json:"agent_id"`
	To      string `json:"to"`
	Script  string `json:"script,omitempty"`
}

type voiceResponse struct {
	CallID string `json:"call_id"`
}

// NewVoiceSender creates a VoiceSender. Returns nil when the channel is
// disabled or unconfigured.
func NewVoiceSender(cfg config.VoiceSenderConfig) *VoiceSender {
	if !cfg.GetVoiceEnabled() || cfg.GetVoiceAPIURL() == "" {
		return nil
	}

	return &VoiceSender{
		baseURL: strings.TrimRight(cfg.GetVoiceAPIURL(), "/"),
		apiKey:  cfg.GetVoiceAPIKey(),
		agentID: cfg.GetVoiceAgentID(),
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Channel implements Sender.
func (s *VoiceSender) Channel() domain.Channel { return domain.ChannelVoice }

// Send implements Sender by requesting an outbound call.
func (s *VoiceSender) Send(ctx context.Context, lead domain.Lead, m Message) (Result, error) {
	normalized, err := phone.Validate(lead.PhoneNumber())
	if err != nil {
		return Result{}, Permanentf("lead %s: %v", lead.ID, err)
	}

	body, err := json.Marshal(voiceRequest{AgentID: s.agentID, To: normalized, Script: m.Body})
	if err != nil {
		return Result{}, Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/calls", bytes.NewBuffer(body))
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

	var parsed voiceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, Transient(fmt.Errorf("decode call response: %w", err))
	}

	return Result{ProviderMessageID: parsed.CallID}, nil
}
