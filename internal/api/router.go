package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stox/backend/internal/api/handlers"
	"github.com/wonny/stox/backend/pkg/logger"
)

// Handlers groups the route targets. Jobs and Metrics may be nil.
type Handlers struct {
	Dataset *handlers.DatasetHandler
	Data    *handlers.DataHandler
	Jobs    *handlers.JobsHandler
	Metrics http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Dataset endpoints
	api.HandleFunc("/dataset", h.Dataset.GetDataset).Methods("GET")
	api.HandleFunc("/dataset/rows", h.Dataset.GetRows).Methods("GET")
	api.HandleFunc("/predictors", h.Dataset.GetPredictors).Methods("GET")
	api.HandleFunc("/rankings", h.Dataset.GetRankings).Methods("GET")
	api.HandleFunc("/runs", h.Dataset.GetRuns).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", h.Dataset.TriggerJob).Methods("POST")

	// Data endpoints
	api.HandleFunc("/data/tickers", h.Data.GetTickers).Methods("GET")
	api.HandleFunc("/data/series/{symbol}", h.Data.GetSeries).Methods("GET")

	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.GetJobs).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stox-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
