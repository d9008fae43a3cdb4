package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-standings/services"
)

type GameHandler struct {
	responder
	gameService services.GameService
}

func NewGameHandler(gs services.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		responder:   responder{logger: logger},
		gameService: gs,
	}
}

func (h *GameHandler) Record(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to record a game")
		return
	}

	var input services.RecordGameInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.RecordGame(r.Context(), actor, tournamentID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusCreated, jsonResponse{"game": game})
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.ListGames(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"games": games})
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), tournamentID, gameID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"game": game})
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to delete a game")
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), actor, tournamentID, gameID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
