package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, nil)
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler)

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/habits", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("second request = %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", code)
	}
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client = %d, want 200", code)
	}

	now = now.Add(2 * time.Minute)
	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("after window = %d, want 200", code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(10, nil)
	limiter.now = func() time.Time { return now }
	limiter.allow("10.0.0.1")

	now = now.Add(10 * time.Minute)
	limiter.allow("10.0.0.2")
	limiter.sweep()

	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor was not removed")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Error("active visitor was removed")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := NewRateLimiter(0, nil).Middleware(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10"})
	if err != nil {
		t.Fatalf("NewTrustedProxies: %v", err)
	}

	tests := []struct {
		name    string
		proxies *TrustedProxies
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded via trusted range", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "10.1.2.3:80", want: "1.1.1.1"},
		{name: "real ip via trusted address", proxies: proxies, headers: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "192.168.1.10:80", want: "4.4.4.4"},
		{name: "forwarded from untrusted peer", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "3.3.3.3:80", want: "3.3.3.3"},
		{name: "real ip from untrusted peer", proxies: proxies, headers: map[string]string{"X-Real-IP": "4.4.4.4"}, remote: "192.168.1.11:80", want: "192.168.1.11"},
		{name: "no proxies configured", headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "10.1.2.3:80", want: "10.1.2.3"},
		{name: "trusted peer without headers", proxies: proxies, remote: "10.1.2.3:80", want: "10.1.2.3"},
		{name: "no port", remote: "3.3.3.3", want: "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := tt.proxies.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTrustedProxies_Invalid(t *testing.T) {
	for _, entry := range []string{"proxy.local", "10.0.0.0/33"} {
		if _, err := NewTrustedProxies([]string{entry}); err == nil {
			t.Errorf("NewTrustedProxies(%q) = nil error", entry)
		}
	}
}

func TestRateLimiter_IgnoresSpoofedForwardedFor(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.1"})
	if err != nil {
		t.Fatalf("NewTrustedProxies: %v", err)
	}
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, proxies)
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler)

	do := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/habits", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// A direct client rotating the header is still one visitor.
	if code := do("3.3.3.3:1234", "5.5.5.1"); code != http.StatusOK {
		t.Fatalf("first direct request = %d", code)
	}
	if code := do("3.3.3.3:1234", "5.5.5.2"); code != http.StatusTooManyRequests {
		t.Fatalf("second direct request = %d, want 429", code)
	}

	// Behind the trusted proxy each forwarded client has its own budget.
	if code := do("10.0.0.1:1234", "6.6.6.1"); code != http.StatusOK {
		t.Fatalf("first proxied client = %d", code)
	}
	if code := do("10.0.0.1:1234", "6.6.6.2"); code != http.StatusOK {
		t.Fatalf("second proxied client = %d, want 200", code)
	}
	if code := do("10.0.0.1:1234", "6.6.6.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat proxied client = %d, want 429", code)
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/habits", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/habits", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/habits", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Formatter: log.LogfmtFormatter})

	handler := Logging(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/habits/x", nil))

	out := buf.String()
	if !strings.Contains(out, "status=404") || !strings.Contains(out, "path=/habits/x") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{})

	handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
