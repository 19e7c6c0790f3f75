// Package crm pushes lead status changes to an external CRM. Sync is
// best-effort: a CRM outage never blocks or rewinds the outreach state
// machine.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Client is a thin HTTP client for the CRM status API. A nil client is
// valid and drops every push, which is how the module behaves when no CRM
// is configured.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient returns nil when the CRM integration is disabled.
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	if !cfg.IsCRMEnabled() {
		return nil
	}

	return &Client{
		baseURL:    cfg.GetCRMBaseURL(),
		apiKey:     cfg.GetCRMAPIKey(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type statusPush struct {
	Status    string         `json:"status"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// PushStatus reports a lead status change to the CRM.
func (c *Client) PushStatus(ctx context.Context, leadID uuid.UUID, status string, detail map[string]any) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(statusPush{
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/leads/%s/status", c.baseURL, leadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm push returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
