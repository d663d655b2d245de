package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"golang.org/x/time/rate"
)

func TestIsValidBearerToken(t *testing.T) {
	log := logger_i.NewLogger("test")
	tests := []struct {
		name     string
		header   string
		expected string
		bypass   bool
		want     bool
	}{
		{"valid", "Bearer s3cret", "s3cret", false, true},
		{"wrong token", "Bearer nope", "s3cret", false, false},
		{"missing scheme", "s3cret", "s3cret", false, false},
		{"empty header", "", "s3cret", false, false},
		{"nothing configured", "Bearer ", "", false, false},
		{"bypass", "", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidBearerToken(tt.header, tt.expected, tt.bypass, log); got != tt.want {
				t.Errorf("IsValidBearerToken(%q) = %v; want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2)
	l := limiter.GetLimiter("10.0.0.1")
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst should allow two requests")
	}
	if l.Allow() {
		t.Error("third request within the second should be refused")
	}
	if limiter.GetLimiter("10.0.0.1") != l {
		t.Error("the same address should reuse its limiter")
	}

	limiter.GetLimiter("10.0.0.2")
	if limiter.Len() != 2 {
		t.Fatalf("expected 2 tracked addresses, got %d", limiter.Len())
	}
	if n := limiter.Prune(time.Hour); n != 0 {
		t.Errorf("nothing is idle yet, pruned %d", n)
	}
	time.Sleep(5 * time.Millisecond)
	if n := limiter.Prune(time.Millisecond); n != 2 {
		t.Errorf("expected both addresses pruned, got %d", n)
	}
}

func withAuth(t *testing.T, token string) {
	t.Helper()
	previous := config.Current()
	s := config.Default()
	s.Service.AuthToken = token
	config.Set(s)
	t.Cleanup(func() { config.Set(previous) })
}

func TestWrap(t *testing.T) {
	withAuth(t, "s3cret")

	var seenTrace any
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = r.Context().Value(config.TRACE_ID_KEY)
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rr.Code)
	}
	if seenTrace != nil {
		t.Error("handler must not run for rejected requests")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	req.Header.Set(traceHeader, "trace-123")
	rr = httptest.NewRecorder()
	handler(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected the handler's status, got %d", rr.Code)
	}
	if seenTrace != "trace-123" {
		t.Errorf("trace id not propagated, got %v", seenTrace)
	}
	if rr.Header().Get(traceHeader) != "trace-123" {
		t.Error("trace id should be echoed on the response")
	}
}
