package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-standings/middleware"
	"github.com/Dosada05/tournament-standings/services"
)

type UserHandler struct {
	responder
	userService services.UserService
}

func NewUserHandler(us services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder:   responder{logger: logger},
		userService: us,
	}
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), currentUserID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"user": user})
}
