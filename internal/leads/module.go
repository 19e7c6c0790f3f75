// Package leads provides the lead lifecycle bounded context: ingestion,
// operator transitions, reset, and pipeline stats.
package leads

import (
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/leads/handler"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/leads/service"
	"outreach_backend/internal/touches"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule wires the leads module over the shared pool.
func NewModule(pool *pgxpool.Pool, cfg config.SweeperConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, touches.New(pool), cfg.GetStaleClaimTimeout(), log)

	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository exposes the lead store for the worker composition root.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.POST("", m.handler.HandleIngestLead)
	group.GET("/:leadId", m.handler.HandleGetLead)
	group.POST("/:leadId/advance", m.handler.HandleAdvanceLead)
	group.POST("/:leadId/reset", m.handler.HandleResetLead)

	ctx.Protected.GET("/stats", m.handler.HandleStats)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
