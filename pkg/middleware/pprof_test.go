package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func allowlistStatus(cidrs []string, remoteAddr string) int {
	h := IPAllowlist(cidrs, discardLogger())(statusHandler(http.StatusOK))
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestIPAllowlist(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", " 192.168.1.0/24 ", "not-a-cidr", "::1/128"}

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5000", http.StatusOK},
		{"192.168.1.77:5000", http.StatusOK},
		{"[::1]:5000", http.StatusOK},
		{"[::ffff:10.0.0.9]:5000", http.StatusOK},
		{"192.168.2.1:5000", http.StatusForbidden},
		{"8.8.8.8:5000", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, allowlistStatus(cidrs, tt.remote))
		})
	}
}

func TestIPAllowlist_DeniedEnvelope(t *testing.T) {
	h := IPAllowlist([]string{"10.0.0.0/8"}, discardLogger())(statusHandler(http.StatusOK))
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "172.16.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	assert.True(t, RegisterPprof(r, []string{"127.0.0.0/8"}, discardLogger()))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "203.0.113.5:4000"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterPprof_NoValidCIDRs(t *testing.T) {
	r := chi.NewRouter()
	assert.False(t, RegisterPprof(r, []string{"", "bogus"}, discardLogger()))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
