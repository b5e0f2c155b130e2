package health

import (
	"encoding/json"
	"net/http"
)

// Register adds the liveness and readiness probes to mux. ready may be nil,
// in which case the service is always ready. When sessions is non-nil,
// /sessionz reports active session counts per workstation directory.
func Register(mux *http.ServeMux, ready func() bool, sessions func() map[string]int) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if sessions != nil {
		mux.HandleFunc("/sessionz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(sessions())
		})
	}
}
