package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessReporter reports whether a map engine has a live client.
type ReadinessReporter interface {
	Readiness() (ready bool, clients int)
}

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status  string `json:"status"`
			Clients int    `json:"clients"`
		}
		ready, clients := rr.Readiness()
		out := resp{Status: "not_ready", Clients: clients}
		if ready {
			out.Status = "ready"
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
