package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/api/handler"
	"github.com/mcoot/battleship-go/internal/api/middleware"
	sharedmw "github.com/mcoot/battleship-go/internal/middleware"
	"github.com/mcoot/battleship-go/internal/services/session"
)

// DefaultWSPath is where the WebSocket endpoint is mounted unless configured
const DefaultWSPath = "/ws"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	SessionController session.ControllerInterface
	// WebSocket is the upgrade handler; the route is omitted when nil
	WebSocket   http.Handler
	WSPath      string
	Connections handler.ConnectionCounter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(cfg.SessionController)
	healthHandler := handler.NewHealthHandler(cfg.Connections)

	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	if cfg.WebSocket != nil {
		wsPath := cfg.WSPath
		if wsPath == "" {
			wsPath = DefaultWSPath
		}
		r.Handle(wsPath, loggingMiddleware(cfg.WebSocket)).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	return r
}
