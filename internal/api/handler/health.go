package handler

import (
	"net/http"

	"github.com/mcoot/battleship-go/internal/api/response"
)

// ConnectionCounter reports how many connections are open
type ConnectionCounter interface {
	ClientCount() int
}

// HealthHandler reports server liveness
type HealthHandler struct {
	connections ConnectionCounter
}

// NewHealthHandler creates a new health handler. connections may be nil.
func NewHealthHandler(connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{connections: connections}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok"}
	if h.connections != nil {
		resp.Connections = h.connections.ClientCount()
	}
	response.JSON(w, http.StatusOK, resp)
}
