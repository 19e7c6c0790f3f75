package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type staticKeys struct {
	keys map[string]Key
}

func (s *staticKeys) GetByProvider(_ context.Context, provider string) (Key, error) {
	key, ok := s.keys[provider]
	if !ok {
		return Key{}, ErrKeyNotFound
	}
	return key, nil
}

func signatureRouter(keys SecretSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/webhooks/:provider")
	group.Use(SignatureAuthMiddleware(keys, logger.New("development")))
	group.POST("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func TestSignatureAuthRejectsUnsignedRequest(t *testing.T) {
	router := signatureRouter(&staticKeys{keys: map[string]Key{"mailprovider": {Secret: "s3cret"}}})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mailprovider", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for unsigned request", rec.Code)
	}
}

func TestSignatureAuthRejectsWrongSignature(t *testing.T) {
	router := signatureRouter(&staticKeys{keys: map[string]Key{"mailprovider": {Secret: "s3cret"}}})

	body := []byte(`{"event":"delivered"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mailprovider", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("wrong-secret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for bad signature", rec.Code)
	}
}

func TestSignatureAuthRejectsUnknownProvider(t *testing.T) {
	router := signatureRouter(&staticKeys{keys: map[string]Key{}})

	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/ghost", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("anything", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for unknown provider", rec.Code)
	}
}

func TestSignatureAuthAcceptsValidSignature(t *testing.T) {
	router := signatureRouter(&staticKeys{keys: map[string]Key{"mailprovider": {Provider: "mailprovider", Secret: "s3cret"}}})

	body := []byte(`{"event":"delivered","provider_message_id":"abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mailprovider", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("s3cret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for valid signature (body %s)", rec.Code, rec.Body.String())
	}
}

func TestSignatureAuthTamperedBodyFailsVerification(t *testing.T) {
	router := signatureRouter(&staticKeys{keys: map[string]Key{"mailprovider": {Secret: "s3cret"}}})

	signed := []byte(`{"event":"delivered"}`)
	tampered := []byte(`{"event":"bounced"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mailprovider", bytes.NewReader(tampered))
	req.Header.Set(SignatureHeader, Sign("s3cret", signed))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for tampered body", rec.Code)
	}
}
