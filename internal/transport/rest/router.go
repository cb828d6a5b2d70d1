package rest

import (
	_ "careerchat/docs"
	"careerchat/internal/config"
	"careerchat/internal/service"
	"careerchat/internal/transport/rest/handler"
	"careerchat/internal/transport/rest/middleware"
	"careerchat/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	Config      config.ServerConfig
	AuthService *service.AuthService
	Turns       *service.TurnCoordinator
	WSHub       *ws.Hub
	Logger      *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.Turns, c.AuthService, c.Logger)
	catalogHandler := handler.NewCatalogHandler(c.Turns.Engine().Catalog())
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Config))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/catalog", catalogHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, `{"error":"api docs unavailable"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	// Session routes (require a token for the session in the path)
	sessionRoutes := v1.PathPrefix("/sessions/{id}").Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("", sessionHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	sessionRoutes.HandleFunc("/answers", sessionHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/reset", sessionHandler.Reset).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/persona", sessionHandler.SetPersona).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/results", sessionHandler.Results).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/transcript", sessionHandler.Transcript).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.ServerConfig) mux.MiddlewareFunc {
	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	allowedMethods := cfg.AllowedMethods
	if allowedMethods == "" {
		allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	allowedHeaders := cfg.AllowedHeaders
	if allowedHeaders == "" {
		allowedHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
}
