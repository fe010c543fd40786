package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler returns an HTTP handler for liveness probes. It
// always answers 200 while the process runs.
func LivenessHandler(checker *Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, checker.CheckLiveness(r.Context()))
	})
}

// ReadinessHandler returns an HTTP handler for readiness probes. A
// degraded runtime answers 503 so orchestrators stop routing to it.
func ReadinessHandler(checker *Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := checker.CheckReadiness(r.Context())

		code := http.StatusOK
		if status.Status == "degraded" {
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, status)
	})
}

// Register mounts the liveness and readiness handlers on the mux.
func Register(mux *http.ServeMux, checker *Checker) {
	mux.Handle("/healthz", LivenessHandler(checker))
	mux.Handle("/readyz", ReadinessHandler(checker))
}

func writeStatus(w http.ResponseWriter, code int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
