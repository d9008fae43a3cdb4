package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/services"
)

type ParticipantHandler struct {
	responder
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		responder:          responder{logger: logger},
		participantService: ps,
	}
}

// Register handles POST /tournaments/{tournamentID}/participants. An empty
// body registers the caller; {"team_id": n} registers their team.
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to register")
		return
	}

	var input services.RegisterParticipantInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
	}

	participant, err := h.participantService.Register(r.Context(), actor, tournamentID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusCreated, jsonResponse{"participant": participant})
}

// List handles GET /tournaments/{tournamentID}/participants?status=.
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var status *models.ParticipantStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.ParticipantStatus(raw)
		if s != models.ParticipantStatusActive && s != models.ParticipantStatusWithdrawn {
			h.badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		status = &s
	}

	participants, err := h.participantService.ListParticipants(r.Context(), tournamentID, status)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"participants": participants})
}

func (h *ParticipantHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to withdraw")
		return
	}

	if err := h.participantService.Withdraw(r.Context(), actor, tournamentID, participantID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
