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

func TestCheckLiveness(t *testing.T) {
	c := New(0)
	status := c.CheckLiveness(context.Background())
	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}
}

func TestCheckReadinessNoChecks(t *testing.T) {
	c := New(0)
	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("Status = %q, want ready with no checks", status.Status)
	}
}

func TestCheckReadinessAggregation(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("event_log", func(ctx context.Context) error { return nil })
	c.RegisterCheck("rules", func(ctx context.Context) error { return errors.New("no rules loaded") })

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded", status.Status)
	}
	if status.Checks["event_log"].Status != "ok" {
		t.Errorf("event_log = %+v", status.Checks["event_log"])
	}
	if status.Checks["rules"].Status != "unhealthy" || status.Checks["rules"].Message != "no rules loaded" {
		t.Errorf("rules = %+v", status.Checks["rules"])
	}
}

func TestCheckReadinessTimeout(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return ctx.Err()
	})

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Errorf("Status = %q, want degraded on timeout", status.Status)
	}
}

func TestUnregisterCheck(t *testing.T) {
	c := New(0)
	c.RegisterCheck("a", func(ctx context.Context) error { return nil })
	c.RegisterCheck("b", func(ctx context.Context) error { return nil })
	c.UnregisterCheck("a")

	if c.CheckCount() != 1 {
		t.Errorf("CheckCount() = %d, want 1", c.CheckCount())
	}
}

func TestEndpoints(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("event_log", func(ctx context.Context) error { return errors.New("database locked") })

	mux := http.NewServeMux()
	Register(mux, c)

	t.Run("liveness always ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want 200", rec.Code)
		}
	})

	t.Run("readiness reports degraded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("code = %d, want 503", rec.Code)
		}

		var status Status
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		if status.Status != "degraded" {
			t.Errorf("Status = %q", status.Status)
		}
	})
}
