package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"sahayak/internal/service"
	"sahayak/internal/transport/rest/handler"
	"sahayak/internal/transport/rest/middleware"
	"sahayak/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	PedagogyService *service.PedagogyService
	WSHub           *ws.Hub
	Logger          *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sosHandler := handler.NewSOSHandler(c.PedagogyService)
	statsHandler := handler.NewStatsHandler(c.PedagogyService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.PedagogyService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/stats/overview", statsHandler.Overview).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sos/{id}", wsHandler.WatchSOS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Quick SOS works with or without a token
	quickRoutes := v1.NewRoute().Subrouter()
	quickRoutes.Use(authMW.OptionalTeacher)

	quickRoutes.HandleFunc("/sos/quick", sosHandler.Quick).Methods("POST", "OPTIONS")

	// Teacher routes (require teacher auth)
	teacherRoutes := v1.NewRoute().Subrouter()
	teacherRoutes.Use(authMW.RequireTeacher)

	teacherRoutes.HandleFunc("/sos", sosHandler.Create).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/sos", sosHandler.List).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sos/{id}", sosHandler.Get).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sos/{id}/playbook", sosHandler.GetPlaybook).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sos/{id}/feedback", sosHandler.Feedback).Methods("POST", "OPTIONS")

	// Stats routes (teacher only)
	teacherRoutes.HandleFunc("/stats/teacher", statsHandler.TeacherStats).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/stats/cache", statsHandler.CacheStats).Methods("GET", "OPTIONS")

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
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
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
