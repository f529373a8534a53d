package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:4412",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header from trusted proxy",
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "203.0.113.7:4412",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip from trusted proxy",
			remoteAddr: "192.168.1.10:9000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "garbage forwarded value falls back to peer",
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(req); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "100.64.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	if got := d.ExtractClientIP(req); got != "203.0.113.5" {
		t.Errorf("ExtractClientIP() = %q", got)
	}

	if err := d.AddTrustedProxy("nope"); err == nil {
		t.Error("invalid CIDR should be rejected")
	}
}

func TestHeadersMiddleware(t *testing.T) {
	mw := NewHeadersMiddleware(DefaultHeadersConfig())
	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	checks := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for header, want := range checks {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set on plain HTTP")
	}
}
