package handler

import (
	"net/http"

	"github.com/Dan9191/balancify/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter wires every route. Analysis and simulation routes share limiter
// since each may call the external insight provider.
func (h *Handler) NewRouter(limiter *rate.Limiter, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(h.log))

	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analysis/{questionnaireId}", h.GetAnalysis).Methods("GET")
	api.HandleFunc("/simulate/presets", h.ListPresets).Methods("GET")
	api.HandleFunc("/report/{questionnaireId}", h.DownloadReport).Methods("GET")
	api.HandleFunc("/report/{questionnaireId}/email", h.EmailReport).Methods("POST")
	api.HandleFunc("/sessions", h.CreateSession).Methods("POST")

	// Routes that may reach the insight provider
	limited := api.NewRoute().Subrouter()
	limited.Use(middleware.RateLimit(limiter, h.log))
	limited.HandleFunc("/questionnaire", h.SubmitQuestionnaire).Methods("POST")
	limited.HandleFunc("/simulate", h.Simulate).Methods("POST")

	// Session routes
	current := api.PathPrefix("/sessions/current").Subrouter()
	current.Use(middleware.SessionAuth(h.tokens, h.store))
	current.HandleFunc("", h.CurrentSession).Methods("GET")
	current.HandleFunc("", h.EndSession).Methods("DELETE")
	current.HandleFunc("/progress", h.SaveProgress).Methods("PUT")
	current.Handle("/complete", middleware.RateLimit(limiter, h.log)(http.HandlerFunc(h.CompleteSession))).Methods("POST")

	return r
}
