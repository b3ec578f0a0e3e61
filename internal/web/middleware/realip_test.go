package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies configured", nil, "10.0.0.5:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.0.0.5:1234"},
		{"trusted real ip", []string{"10.0.0.0/8"}, "10.0.0.5:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", []string{"10.0.0.0/8"}, "10.0.0.5:1234", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.9"}, "5.6.7.8"},
		{"untrusted proxy", []string{"10.0.0.0/8"}, "192.168.1.1:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "192.168.1.1:1234"},
		{"single address entry", []string{"127.0.0.1"}, "127.0.0.1:80", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.0.0.5:1234", map[string]string{"X-Real-IP": "nope"}, "10.0.0.5:1234"},
		{"invalid entry skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.5:1234", map[string]string{"X-Real-IP": "::1"}, "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	for remote, want := range map[string]string{
		"1.2.3.4:80":         "1.2.3.4",
		"[::ffff:1.2.3.4]:1": "1.2.3.4",
		"5.6.7.8":            "5.6.7.8",
		"pipe":               "pipe",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if got := ClientIP(req); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", remote, got, want)
		}
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
