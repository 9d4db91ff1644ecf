package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/component"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, h gin.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	r := gin.New()
	r.GET("/x", h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rr.Code, body
}

func checker(statuses ...component.HealthStatus) HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: string(s), Status: s}
		}
		return out
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checker  HealthChecker
		wantCode int
		want     string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"all healthy", checker(component.StatusHealthy), http.StatusOK, "healthy"},
		{"degraded", checker(component.StatusHealthy, component.StatusDegraded), http.StatusOK, "degraded"},
		{"unhealthy", checker(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := serve(t, Health("scribe", tc.checker))
			if code != tc.wantCode || body["status"] != tc.want {
				t.Errorf("code=%d body=%v", code, body)
			}
			if _, ok := body["components"].([]interface{}); !ok {
				t.Errorf("components should be an array: %v", body["components"])
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	if code, body := serve(t, Readiness("scribe", checker(component.StatusDegraded))); code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("degraded: code=%d body=%v", code, body)
	}
	if code, body := serve(t, Readiness("scribe", checker(component.StatusUnhealthy))); code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Errorf("unhealthy: code=%d body=%v", code, body)
	}
}

func TestLivenessInfoVersionMetrics(t *testing.T) {
	if code, body := serve(t, Liveness("scribe")); code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("liveness: %d %v", code, body)
	}

	_, info := serve(t, Info("scribe", func() map[string]any {
		return map[string]any{"providers": []string{"elevenlabs"}}
	}))
	if info["service"] != "scribe" || info["version"] == nil || info["providers"] == nil {
		t.Errorf("info = %v", info)
	}

	if _, v := serve(t, Version()); v["version"] == nil {
		t.Errorf("version = %v", v)
	}
	if _, m := serve(t, Metrics()); m["goroutines"] == nil {
		t.Errorf("metrics = %v", m)
	}
}
