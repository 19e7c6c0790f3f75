package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

type crmConfig struct {
	baseURL string
	apiKey  string
}

func (c crmConfig) GetCRMBaseURL() string { return c.baseURL }
func (c crmConfig) GetCRMAPIKey() string  { return c.apiKey }
func (c crmConfig) IsCRMEnabled() bool    { return c.baseURL != "" }

func TestClientDisabledWithoutBaseURL(t *testing.T) {
	client := NewClient(crmConfig{}, logger.New("development"))
	if client != nil {
		t.Fatal("client should be nil when CRM is not configured")
	}
	// Nil client pushes are a silent no-op.
	if err := client.PushStatus(context.Background(), uuid.New(), "contacted", nil); err != nil {
		t.Fatal(err)
	}
}

func TestPushStatusSendsAuthenticatedRequest(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotKey string
	var gotBody statusPush
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(crmConfig{baseURL: srv.URL, apiKey: "crm-key"}, logger.New("development"))
	leadID := uuid.New()
	err := client.PushStatus(context.Background(), leadID, "contacted", map[string]any{"channel": "email"})
	if err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := "/v1/leads/" + leadID.String() + "/status"; gotPath != want {
		t.Fatalf("path = %q, want %q", gotPath, want)
	}
	if gotKey != "crm-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if gotBody.Status != "contacted" {
		t.Fatalf("status = %q, want contacted", gotBody.Status)
	}
}

func TestPushStatusErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(crmConfig{baseURL: srv.URL, apiKey: "k"}, logger.New("development"))
	if err := client.PushStatus(context.Background(), uuid.New(), "failed", nil); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestSyncerMirrorsContactedAndFailedEvents(t *testing.T) {
	var mu sync.Mutex
	var statuses []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body statusPush
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		statuses = append(statuses, body.Status)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	log := logger.New("development")
	client := NewClient(crmConfig{baseURL: srv.URL, apiKey: "k"}, log)
	bus := events.NewInMemoryBus(log)
	NewSyncer(client, log).RegisterHandlers(bus)

	ctx := context.Background()
	if err := bus.PublishSync(ctx, events.LeadContacted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		Channel:   "email",
		TouchID:   uuid.New(),
	}); err != nil {
		t.Fatal(err)
	}
	if err := bus.PublishSync(ctx, events.LeadFailed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		Channel:   "sms",
		Reason:    "gave up after 3 attempts",
	}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) != 2 || statuses[0] != "contacted" || statuses[1] != "failed" {
		t.Fatalf("statuses = %v, want [contacted failed]", statuses)
	}
}

func TestSyncerSwallowsCRMFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	log := logger.New("development")
	client := NewClient(crmConfig{baseURL: srv.URL, apiKey: "k"}, log)
	bus := events.NewInMemoryBus(log)
	NewSyncer(client, log).RegisterHandlers(bus)

	// Handler must report success even when the CRM is down.
	err := bus.PublishSync(context.Background(), events.LeadContacted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		Channel:   "email",
		TouchID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("sync failure leaked into the event bus: %v", err)
	}
}
