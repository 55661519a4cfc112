package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpipulse/internal/infrastructure"
)

func TestOTelMiddleware_RecordsRouteMetrics(t *testing.T) {
	cfg := infrastructure.DefaultOTelConfig()
	cfg.TraceExporter = "none"
	providers, err := infrastructure.InitializeOTel(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.PrometheusHTTP)

	m, err := NewOTelMiddleware(providers, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/v1/items/{id}", okHandler)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for _, path := range []string{"/api/v1/items/1", "/api/v1/items/2", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "http_requests_total")
	assert.Contains(t, text, `route="/api/v1/items/{id}"`)
	assert.Contains(t, text, "system_errors_total")
}

func TestNewOTelMiddleware_RequiresProviders(t *testing.T) {
	_, err := NewOTelMiddleware(nil, nil)
	assert.Error(t, err)
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain uses first hop", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip header", headers: map[string]string{"X-Real-IP": "10.0.0.9"}, remote: "1.1.1.1:80", want: "10.0.0.9"},
		{name: "remote addr without port", remote: "192.168.1.5:5555", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetRealIP(req))
		})
	}
}
