package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/services"
)

type AdminUserHandler struct {
	responder
	adminUserService services.AdminUserService
	dashboardService services.DashboardService
}

func NewAdminUserHandler(s services.AdminUserService, ds services.DashboardService, logger *slog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		responder:        responder{logger: logger},
		adminUserService: s,
		dashboardService: ds,
	}
}

func (h *AdminUserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	filter := models.UserFilter{
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if role := q.Get("role"); role != "" {
		filter.Role = &role
	}
	if status := q.Get("status"); status != "" {
		filter.Status = &status
	}

	res, err := h.adminUserService.ListUsers(r.Context(), filter)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, res)
}

func (h *AdminUserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.adminUserService.DeleteUser(r.Context(), actor, userID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateUserStatus bans or reinstates a user.
func (h *AdminUserHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		Status models.UserStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	user, err := h.adminUserService.UpdateUserStatus(r.Context(), actor, userID, input.Status)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"user": user})
}

func (h *AdminUserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, stats)
}
