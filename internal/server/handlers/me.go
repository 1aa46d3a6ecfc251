package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authkeeper/pkg/api"
)

// MeHandler reports the authenticated identity
type MeHandler struct {
	logger *slog.Logger
}

// NewMeHandler creates the whoami handler
func NewMeHandler(logger *slog.Logger) *MeHandler {
	return &MeHandler{logger: logger}
}

// Me handles GET /api/v1/me
// Works behind combined auth: either mechanism resolves to an identity
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	if result := AuthResultFrom(r.Context()); result != nil {
		sendJSON(h.logger, w, api.MeResponse{
			Username:   result.User.Username,
			AuthMethod: "token",
		}, http.StatusOK)
		return
	}

	if identity := SessionIdentityFrom(r.Context()); identity != nil {
		sendJSON(h.logger, w, api.MeResponse{
			Username:   identity.User.Username,
			AuthMethod: "session",
		}, http.StatusOK)
		return
	}

	sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
}
