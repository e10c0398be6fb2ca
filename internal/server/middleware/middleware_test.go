package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		path       string
		header     map[string]string
		wantStatus int
	}{
		{name: "disabled passes all", token: "", path: "/api/pool/stake", wantStatus: http.StatusOK},
		{name: "health needs no token", token: "secret", path: "/api/health", wantStatus: http.StatusOK},
		{name: "missing token rejected", token: "secret", path: "/api/pool/stake", wantStatus: http.StatusUnauthorized},
		{
			name: "wrong token rejected", token: "secret", path: "/api/pool/stake",
			header:     map[string]string{"Authorization": "Bearer nope"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer token accepted", token: "secret", path: "/api/pool/stake",
			header:     map[string]string{"Authorization": "Bearer secret"},
			wantStatus: http.StatusOK,
		},
		{
			name: "api key header accepted", token: "secret", path: "/api/events",
			header:     map[string]string{"X-API-Key": "secret"},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(tt.token)(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCORSAllowsCallerIdentityHeader(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/pool/stake", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Account")
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/pool/stats", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
