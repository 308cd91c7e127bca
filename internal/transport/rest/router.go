package rest

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"surveystats/internal/metrics"
	"surveystats/internal/service"
	"surveystats/internal/transport/rest/handler"
	"surveystats/internal/transport/rest/middleware"
	"surveystats/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	ResponseService handler.ResponseRecorder
	ReportService   handler.Reporter
	WSHub           *ws.Hub
	Logger          *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	responseHandler := handler.NewResponseHandler(c.ResponseService, c.Logger)
	reportHandler := handler.NewReportHandler(c.ReportService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)
	r.Use(requestMetrics)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/schema", responseHandler.Schema).Methods("GET", "OPTIONS")
	v1.HandleFunc("/responses", responseHandler.Submit).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.ResponseService.Schema().ID(), c.Logger)
		v1.HandleFunc("/ws/dashboard", wsHandler.DashboardWS).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/responses", responseHandler.List).Methods("GET", "OPTIONS")

	// Report routes (host only)
	hostRoutes.HandleFunc("/reports/summary", reportHandler.Summary).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/reports/stratified", reportHandler.Stratified).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/reports/stratified/all", reportHandler.StratifiedAll).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/reports/export", reportHandler.Export).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/reports/snapshots", reportHandler.CreateSnapshot).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/reports/snapshots/latest", reportHandler.LatestSnapshot).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestMetrics counts requests by route template so IDs never become labels
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if route == "/v1/ws/dashboard" {
			// the upgrader needs the raw ResponseWriter to hijack
			metrics.HTTPRequests.WithLabelValues(route, r.Method, "101").Inc()
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
