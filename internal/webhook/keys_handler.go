package webhook

import (
	"errors"
	"net/http"

	"outreach_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KeyHandler exposes operator endpoints for managing provider signing keys.
type KeyHandler struct {
	repo *Repository
}

func NewKeyHandler(repo *Repository) *KeyHandler {
	return &KeyHandler{repo: repo}
}

type createKeyRequest struct {
	Provider string `json:"provider" binding:"required,min=2,max=64"`
}

// HandleCreateKey mints a signing secret for a provider. The plaintext
// secret is returned once; share it with the provider out of band.
func (h *KeyHandler) HandleCreateKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	secret, err := GenerateSecret()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	key, err := h.repo.Create(c.Request.Context(), req.Provider, secret)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	httpkit.Created(c, gin.H{
		"id":       key.ID,
		"provider": key.Provider,
		"secret":   key.Secret,
	})
}

// HandleRevokeKey deactivates a signing key.
func (h *KeyHandler) HandleRevokeKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key id", nil)
		return
	}

	if err := h.repo.Revoke(c.Request.Context(), keyID); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			httpkit.Error(c, http.StatusNotFound, "key not found", nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	httpkit.OK(c, gin.H{"status": "revoked"})
}
