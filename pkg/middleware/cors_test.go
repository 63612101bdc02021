package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(cfg CORSConfig, method, origin string, preflight bool) *httptest.ResponseRecorder {
	h := CORS(cfg)(statusHandler(http.StatusOK))
	req := httptest.NewRequest(method, "/api/wishlist/add", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_DevelopmentAllowsAnyOrigin(t *testing.T) {
	rec := corsRequest(DefaultCORSConfig(), http.MethodGet, "https://shop.example.com", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "X-Correlation-ID", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_ProductionEchoesAllowedOrigin(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://shop.example.com", " https://admin.example.com"}, Environment: "production"}

	rec := corsRequest(cfg, http.MethodGet, "https://admin.example.com", false)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORS_ProductionRejectsUnknownOrigin(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}, Environment: "production"}

	rec := corsRequest(cfg, http.MethodGet, "https://evil.example.com", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitWildcardInProduction(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}

	rec := corsRequest(cfg, http.MethodGet, "https://any.example.com", false)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	rec := corsRequest(DefaultCORSConfig(), http.MethodOptions, "https://shop.example.com", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	rec := corsRequest(DefaultCORSConfig(), http.MethodOptions, "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
