package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"outreach_backend/internal/touches"
	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeLedger struct {
	touchesByMessage map[string]touches.Touch
	engagements      map[uuid.UUID]map[touches.EngagementField]time.Time
	deliveries       map[string]touches.DeliveryStatus
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		touchesByMessage: map[string]touches.Touch{},
		engagements:      map[uuid.UUID]map[touches.EngagementField]time.Time{},
		deliveries:       map[string]touches.DeliveryStatus{},
	}
}

func (f *fakeLedger) GetByProviderMessageID(_ context.Context, providerMessageID string) (touches.Touch, error) {
	touch, ok := f.touchesByMessage[providerMessageID]
	if !ok {
		return touches.Touch{}, touches.ErrTouchNotFound
	}
	return touch, nil
}

func (f *fakeLedger) UpdateEngagement(_ context.Context, touchID uuid.UUID, field touches.EngagementField, ts time.Time) error {
	fields, ok := f.engagements[touchID]
	if !ok {
		fields = map[touches.EngagementField]time.Time{}
		f.engagements[touchID] = fields
	}
	if _, set := fields[field]; set {
		return touches.ErrAlreadySet
	}
	fields[field] = ts
	return nil
}

func (f *fakeLedger) UpdateDeliveryStatus(_ context.Context, providerMessageID string, status touches.DeliveryStatus) error {
	if _, ok := f.touchesByMessage[providerMessageID]; !ok {
		return touches.ErrTouchNotFound
	}
	f.deliveries[providerMessageID] = status
	return nil
}

func eventRouter(ledger TouchLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHandler(ledger, logger.New("development"))
	engine.POST("/webhooks/:provider", handler.HandleProviderEvent)
	return engine
}

func postEvent(t *testing.T, router *gin.Engine, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mailprovider", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDeliveredEventUpdatesDeliveryStatus(t *testing.T) {
	ledger := newFakeLedger()
	ledger.touchesByMessage["msg-1"] = touches.Touch{ID: uuid.New()}
	router := eventRouter(ledger)

	rec := postEvent(t, router, map[string]any{"event": "delivered", "provider_message_id": "msg-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ledger.deliveries["msg-1"] != touches.StatusDelivered {
		t.Fatalf("delivery status = %q, want delivered", ledger.deliveries["msg-1"])
	}
}

func TestRepliedEventSetsEngagementOnce(t *testing.T) {
	ledger := newFakeLedger()
	touchID := uuid.New()
	ledger.touchesByMessage["msg-1"] = touches.Touch{ID: touchID}
	router := eventRouter(ledger)

	rec := postEvent(t, router, map[string]any{"event": "replied", "provider_message_id": "msg-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("first delivery: status = %d", rec.Code)
	}
	if _, set := ledger.engagements[touchID][touches.FieldRepliedAt]; !set {
		t.Fatal("replied_at was not set")
	}

	// Redelivery: acknowledged, flagged as duplicate, timestamp untouched.
	rec = postEvent(t, router, map[string]any{"event": "replied", "provider_message_id": "msg-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery: status = %d, want 200", rec.Code)
	}
	var resp struct {
		Duplicate bool `json:"duplicate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Duplicate {
		t.Fatalf("redelivery response missing duplicate flag: %s", rec.Body.String())
	}
}

func TestUnknownMessageReturns404(t *testing.T) {
	router := eventRouter(newFakeLedger())

	rec := postEvent(t, router, map[string]any{"event": "opened", "provider_message_id": "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUnknownEventTypeIsAcknowledged(t *testing.T) {
	router := eventRouter(newFakeLedger())

	rec := postEvent(t, router, map[string]any{"event": "unsubscribed", "provider_message_id": "msg-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for untracked event type", rec.Code)
	}
	var resp struct {
		Ignored bool `json:"ignored"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Ignored {
		t.Fatalf("response missing ignored flag: %s", rec.Body.String())
	}
}

func TestMissingFieldsRejected(t *testing.T) {
	router := eventRouter(newFakeLedger())

	rec := postEvent(t, router, map[string]any{"event": "delivered"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without provider_message_id", rec.Code)
	}
}
