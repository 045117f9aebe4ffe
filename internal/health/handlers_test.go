package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubChecker struct {
	upstreamErr error
	redisErr    error
}

func (s stubChecker) PingUpstream(context.Context, time.Duration) error { return s.upstreamErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error    { return s.redisErr }

func TestReadyReportsOK(t *testing.T) {
	h := Handler{Checker: stubChecker{}}
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if status["upstream"] != "ok" || status["redis"] != "ok" {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestReadyFailsWhenUpstreamDown(t *testing.T) {
	h := Handler{Checker: stubChecker{upstreamErr: errors.New("connection refused")}}
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler{}.Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected live response: %d %q", rec.Code, rec.Body.String())
	}
}
