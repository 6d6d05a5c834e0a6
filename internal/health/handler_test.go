// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy(context.Context) error { return nil }

func readiness(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body
}

func TestReadinessLifecycle(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: pingFunc(healthy)})

	if code, body := readiness(t, h); code != http.StatusServiceUnavailable || body.Status != "not_ready" {
		t.Fatalf("before ready: %d %q", code, body.Status)
	}

	h.SetReady(true)
	code, body := readiness(t, h)
	if code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("ready: %d %q", code, body.Status)
	}
	if len(body.Checks) != 1 || !body.Checks[0].Healthy {
		t.Fatalf("checks = %+v", body.Checks)
	}

	h.SetShutdown(true)
	if code, body := readiness(t, h); code != http.StatusServiceUnavailable || body.Status != "shutting_down" {
		t.Fatalf("shutdown: %d %q", code, body.Status)
	}
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	h := NewHandler(
		Dependency{Name: "database", Checker: pingFunc(healthy)},
		Dependency{Name: "redis", Checker: pingFunc(func(context.Context) error {
			return errors.New("connection refused")
		})},
	)
	h.SetReady(true)

	code, body := readiness(t, h)
	if code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Fatalf("got %d %q", code, body.Status)
	}

	byName := map[string]HealthCheck{}
	for _, c := range body.Checks {
		byName[c.Name] = c
	}
	if !byName["database"].Healthy {
		t.Error("database should be healthy")
	}
	if byName["redis"].Healthy || byName["redis"].Message != "ping failed" {
		t.Errorf("redis check = %+v", byName["redis"])
	}
}

func TestLivenessIgnoresDependencies(t *testing.T) {
	h := NewHandler(Dependency{Name: "redis", Checker: pingFunc(func(context.Context) error {
		return errors.New("down")
	})})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("liveness = %d", rec.Code)
	}
}
