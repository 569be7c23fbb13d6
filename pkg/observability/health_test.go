package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLiveness(t *testing.T) {
	checker := NewHealthChecker(nil)

	rec := httptest.NewRecorder()
	checker.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	checker := NewHealthChecker(map[string]Pinger{
		"redis":    PingerFunc(func(context.Context) error { return nil }),
		"postgres": PingerFunc(func(context.Context) error { return nil }),
	})

	rec := httptest.NewRecorder()
	checker.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if status.Status != StatusHealthy || len(status.Dependencies) != 2 {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestReadiness_DependencyDown(t *testing.T) {
	checker := NewHealthChecker(map[string]Pinger{
		"redis": PingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	checker.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}

	var status HealthStatus
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy status, got %s", status.Status)
	}
	if dep := status.Dependencies["redis"]; dep.Status != StatusUnhealthy || dep.Message == "" {
		t.Errorf("Unexpected dependency status: %+v", dep)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	// Core code runs without metrics in tests; every helper must be
	// nil-safe.
	var m *Metrics
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, 0)
	m.ObserveCountCall("count", "ok", 0)
	m.BucketHit("talent_pools")
	m.BucketMiss("talent_pools")
	m.BucketPopulate("talent_pools", "ok")
	m.SweptBucket("talent_pools", "retention")
	m.DanglingKey("talent_pools")
	m.SweepError("talent_pools")
	m.WarmedEntity("talent_pools", "error")
	m.ObserveWarmBatch("talent_pools", 0)
}

func TestWarmedEntitySingleSeries(t *testing.T) {
	m := NewMetrics(nil)
	m.WarmedEntity("talent_pools", "ok")
	m.WarmedEntity("talent_pools", "error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `talentstats_warmed_entities_total{kind="talent_pools",status="error"} 1`) {
		t.Errorf("Expected the error status series in the exposition:\n%s", body)
	}
	if !strings.Contains(body, `talentstats_warmed_entities_total{kind="talent_pools",status="ok"} 1`) {
		t.Errorf("Expected the ok status series in the exposition:\n%s", body)
	}
	// Failures live on the status label only, not a second counter.
	if strings.Contains(body, "talentstats_warm_errors_total") {
		t.Error("Warm failures should have a single series")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(nil)
	m.BucketHit("talent_pools")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("Expected metrics exposition output")
	}
}
