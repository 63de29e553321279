package http

import (
	"net/http/httptest"
	"testing"
)

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	var metrics securityMetrics
	for i := 0; i < 3; i++ {
		if !rl.allow("198.51.100.1", &metrics) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("198.51.100.1", &metrics) {
		t.Error("request over the limit should be rejected")
	}
	if metrics.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	// Other clients keep their own budget.
	if !rl.allow("198.51.100.2", &metrics) {
		t.Error("fresh client should be allowed")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:1234",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header from trusted proxy",
			remoteAddr: "10.0.0.5:1234",
			xff:        "203.0.113.7, 10.0.0.5",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "203.0.113.9:1234",
			xff:        "198.51.100.1",
			want:       "203.0.113.9",
		},
		{
			name:       "real-ip fallback from trusted proxy",
			remoteAddr: "127.0.0.1:1234",
			xri:        "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "garbage forwarded value falls back to peer",
			remoteAddr: "192.168.1.10:1234",
			xff:        "not-an-ip",
			want:       "192.168.1.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/cards", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"normal api path", "/api/purchases", false},
		{"path traversal", "/api/../../etc/passwd", true},
		{"env probe", "/.env", true},
		{"wordpress probe", "/wp-admin/setup.php", true},
		{"script injection", "/api/cards/<script>alert(1)</script>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var metrics securityMetrics
			r := httptest.NewRequest("GET", tt.path, nil)
			if got := detectSuspiciousRequest(r, &metrics); got != tt.want {
				t.Errorf("detectSuspiciousRequest(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
