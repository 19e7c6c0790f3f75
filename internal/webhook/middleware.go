package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body,
// keyed with the provider's signing secret.
const SignatureHeader = "X-Webhook-Signature"

const maxBodyBytes = 1 << 20

// SecretSource resolves the active signing key for a provider.
type SecretSource interface {
	GetByProvider(ctx context.Context, provider string) (Key, error)
}

// Sign computes the hex signature for a body. Shared with tests and any
// internal callers that need to produce valid callbacks.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureAuthMiddleware verifies the body signature against the
// provider's key. Unsigned or mismatched requests are rejected before any
// handler runs.
func SignatureAuthMiddleware(keys SecretSource, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Param("provider")

		signature := c.GetHeader(SignatureHeader)
		if signature == "" {
			log.WebhookRejected(provider, "missing signature", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
			return
		}

		key, err := keys.GetByProvider(c.Request.Context(), provider)
		if err != nil {
			log.WebhookRejected(provider, "unknown provider", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown provider"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		// Handlers re-read the body after verification.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		given, err := hex.DecodeString(signature)
		if err != nil {
			log.WebhookRejected(provider, "malformed signature", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		mac := hmac.New(sha256.New, []byte(key.Secret))
		mac.Write(body)
		if !hmac.Equal(given, mac.Sum(nil)) {
			log.WebhookRejected(provider, "signature mismatch", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Set("webhookProvider", key.Provider)
		c.Set("webhookKeyID", key.ID)
		c.Next()
	}
}
