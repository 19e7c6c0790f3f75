package webhook

import (
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/touches"
	"outreach_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler    *Handler
	keyHandler *KeyHandler
	repo       *Repository
	log        *logger.Logger
}

// NewModule wires the webhook module over the shared pool.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler:    NewHandler(touches.New(pool), log),
		keyHandler: NewKeyHandler(repo),
		repo:       repo,
		log:        log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Provider callbacks: signature auth, no JWT.
	providers := ctx.Webhooks.Group("/:provider")
	providers.Use(SignatureAuthMiddleware(m.repo, m.log))
	providers.POST("", m.handler.HandleProviderEvent)

	// Operator key management (JWT auth).
	keys := ctx.Protected.Group("/webhook-keys")
	keys.POST("", m.keyHandler.HandleCreateKey)
	keys.DELETE("/:keyId", m.keyHandler.HandleRevokeKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
