package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openbnet/presence/internal/api/handler"
	"github.com/openbnet/presence/internal/api/middleware"
	"github.com/openbnet/presence/internal/services/online"
	"github.com/openbnet/presence/internal/services/presence"
	"github.com/openbnet/presence/internal/services/registry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Registry    *registry.Service
	Presence    *presence.Engine
	Coordinator *online.Coordinator
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.Registry)
	presenceHandler := handler.NewPresenceHandler(cfg.Presence, cfg.Coordinator)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Account routes
	api.HandleFunc("/accounts", accountHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/accounts", accountHandler.GetByTag).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", accountHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/verify-password", accountHandler.VerifyPassword).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/level", accountHandler.SetUserLevel).Methods(http.MethodPatch)
	api.HandleFunc("/accounts/{id}/gameaccounts", accountHandler.CreateGameAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}/gameaccounts", accountHandler.ListGameAccounts).Methods(http.MethodGet)
	api.HandleFunc("/gameaccounts/{id}", accountHandler.DeleteGameAccount).Methods(http.MethodDelete)

	// Session routes
	api.HandleFunc("/sessions", presenceHandler.AttachSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", presenceHandler.DetachSession).Methods(http.MethodDelete)

	// Presence routes
	api.HandleFunc("/presence/{high}/{low}/field", presenceHandler.QueryField).Methods(http.MethodGet)
	api.HandleFunc("/presence/{high}/{low}/field", presenceHandler.ApplyField).Methods(http.MethodPost)
	api.HandleFunc("/presence/{high}/{low}/snapshot", presenceHandler.Snapshot).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
