package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/fundwise/waterfall/internal/scenario"
)

// NewServer creates an HTTP server with all routes configured.
// Scenario routes are registered only when a scenario service is available.
func NewServer(port string, scenarios *scenario.Service, defaults SweepDefaults, adminAPIKey string) *http.Server {
	handler := NewHandler(scenarios, defaults)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/waterfall", handler.Compute)
	mux.HandleFunc("POST /api/v1/waterfall/sweep", handler.Sweep)
	mux.HandleFunc("POST /api/v1/waterfall/thresholds", handler.Thresholds)

	if scenarios != nil {
		mux.HandleFunc("GET /api/v1/scenarios", handler.ListScenarios)
		mux.HandleFunc("GET /api/v1/scenarios/{name}", handler.GetScenario)

		saveHandler := http.HandlerFunc(handler.SaveScenario)
		if adminAPIKey != "" {
			mux.Handle("POST /api/v1/scenarios", requireAuth(adminAPIKey, saveHandler))
		} else {
			mux.Handle("POST /api/v1/scenarios", saveHandler)
		}
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
