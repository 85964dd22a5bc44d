package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(reg); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	ObserveREST("GET", "workspaces", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "geoserver_rest_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
	if !strings.Contains(body, "geoserver_rest_request_duration_seconds_bucket") {
		t.Fatalf("missing histogram buckets:\n%s", body)
	}
}

func TestObserveREST_LabelsAndDefaults(t *testing.T) {
	before := testutil.ToFloat64(restRequestsTotal.WithLabelValues("DELETE", "other", "0"))
	ObserveREST("DELETE", "", 0, 0.2)
	after := testutil.ToFloat64(restRequestsTotal.WithLabelValues("DELETE", "other", "0"))
	if after-before != 1 {
		t.Fatalf("counter delta=%v want 1", after-before)
	}
}

func TestIncEventPublished(t *testing.T) {
	ok0 := testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("update", "ok"))
	err0 := testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("update", "error"))
	IncEventPublished("update", true)
	IncEventPublished("update", false)
	IncEventPublished("update", false)
	if d := testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("update", "ok")) - ok0; d != 1 {
		t.Fatalf("ok delta=%v", d)
	}
	if d := testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("update", "error")) - err0; d != 2 {
		t.Fatalf("error delta=%v", d)
	}
}
