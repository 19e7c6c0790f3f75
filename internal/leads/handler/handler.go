// Package handler exposes the leads HTTP endpoints.
package handler

import (
	"net/http"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/service"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *service.Service
	val     *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

func (h *Handler) HandleIngestLead(c *gin.Context) {
	var req transport.IngestLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	params := service.IngestParams{
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	if req.Research != nil {
		params.Research = &domain.Research{
			SchemaVersion: domain.ResearchSchemaVersion,
			Industry:      req.Research.Industry,
			CompanySize:   req.Research.CompanySize,
			Website:       req.Research.Website,
			Summary:       req.Research.Summary,
			TalkingPoints: req.Research.TalkingPoints,
		}
	}

	lead, err := h.service.Ingest(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToLeadResponse(lead))
}

func (h *Handler) HandleGetLead(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, history, err := h.service.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.LeadDetailResponse{
		Lead:    transport.ToLeadResponse(lead),
		Touches: transport.ToTouchResponses(history),
	})
}

func (h *Handler) HandleAdvanceLead(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.AdvanceLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lead, err := h.service.Advance(c.Request.Context(), leadID, domain.Status(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) HandleResetLead(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.service.Reset(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.StatsResponse{
		LeadsByStatus:    make(map[string]int64, len(stats.LeadsByStatus)),
		TouchesByChannel: make(map[string]int64, len(stats.TouchesByChannel)),
		StaleClaims:      stats.StaleClaims,
	}
	for status, count := range stats.LeadsByStatus {
		resp.LeadsByStatus[string(status)] = count
	}
	resp.FailedLeads = resp.LeadsByStatus[string(domain.StatusFailed)]
	for channel, count := range stats.TouchesByChannel {
		resp.TouchesByChannel[string(channel)] = count
	}

	httpkit.OK(c, resp)
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return leadID, true
}
