package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessReporter reports whether the service can answer, with per
// collection member counts for operators.
type ReadinessReporter interface {
	Readiness() (ready bool, counts map[string]int)
}

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status string         `json:"status"`
			Counts map[string]int `json:"counts,omitempty"`
		}
		ready, counts := rr.Readiness()
		out := resp{Status: "not_ready"}
		if ready {
			out.Status = "ready"
			out.Counts = counts
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
