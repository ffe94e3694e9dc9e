package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/battleship-go/internal/api/apierr"
	"github.com/mcoot/battleship-go/internal/api/response"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/session"
)

// SessionHandler serves read-only session snapshots
type SessionHandler struct {
	sessions session.ControllerInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions session.ControllerInterface) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		WriteError(w, apierr.NewInvalidRequestError("session id is required"))
		return
	}

	s, err := h.sessions.GetSession(r.Context(), model.SessionID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}
