package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"outreach_backend/internal/touches"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TouchLedger is the slice of the touch repository the webhook handler
// writes through.
type TouchLedger interface {
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (touches.Touch, error)
	UpdateEngagement(ctx context.Context, touchID uuid.UUID, field touches.EngagementField, ts time.Time) error
	UpdateDeliveryStatus(ctx context.Context, providerMessageID string, status touches.DeliveryStatus) error
}

// Handler maps provider callback events onto the touch ledger.
type Handler struct {
	ledger TouchLedger
	log    *logger.Logger
}

func NewHandler(ledger TouchLedger, log *logger.Logger) *Handler {
	return &Handler{ledger: ledger, log: log}
}

type providerEventRequest struct {
	Event             string     `json:"event" binding:"required"`
	ProviderMessageID string     `json:"provider_message_id" binding:"required"`
	Timestamp         *time.Time `json:"timestamp"`
}

// HandleProviderEvent processes one delivery or engagement callback.
// Redeliveries are acknowledged with 200 so providers stop retrying, with a
// duplicate flag for anyone reading the response.
func (h *Handler) HandleProviderEvent(c *gin.Context) {
	var req providerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	ctx := c.Request.Context()
	var err error
	switch req.Event {
	case "delivered":
		err = h.ledger.UpdateDeliveryStatus(ctx, req.ProviderMessageID, touches.StatusDelivered)
	case "bounced":
		err = h.ledger.UpdateDeliveryStatus(ctx, req.ProviderMessageID, touches.StatusBounced)
	case "failed":
		err = h.ledger.UpdateDeliveryStatus(ctx, req.ProviderMessageID, touches.StatusFailed)
	case "opened":
		err = h.applyEngagement(ctx, req.ProviderMessageID, touches.FieldOpenedAt, ts)
	case "replied":
		err = h.applyEngagement(ctx, req.ProviderMessageID, touches.FieldRepliedAt, ts)
	default:
		// Providers emit event types we do not track; acknowledging them
		// keeps their retry queues quiet.
		httpkit.OK(c, gin.H{"status": "ok", "ignored": true})
		return
	}

	switch {
	case err == nil:
		httpkit.OK(c, gin.H{"status": "ok"})
	case errors.Is(err, touches.ErrAlreadySet):
		h.log.Debug("duplicate webhook delivery",
			"event", req.Event, "provider_message_id", req.ProviderMessageID)
		httpkit.OK(c, gin.H{"status": "ok", "duplicate": true})
	case errors.Is(err, touches.ErrTouchNotFound):
		httpkit.Error(c, http.StatusNotFound, "unknown message", nil)
	default:
		h.log.DatabaseError("apply webhook event", err)
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *Handler) applyEngagement(ctx context.Context, providerMessageID string, field touches.EngagementField, ts time.Time) error {
	touch, err := h.ledger.GetByProviderMessageID(ctx, providerMessageID)
	if err != nil {
		return err
	}
	return h.ledger.UpdateEngagement(ctx, touch.ID, field, ts)
}
