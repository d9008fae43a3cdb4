package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-standings/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StandingsHandler struct {
	responder
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService, logger *slog.Logger) *StandingsHandler {
	return &StandingsHandler{
		responder:        responder{logger: logger},
		standingsService: ss,
	}
}

// Standings handles GET /tournaments/{tournamentID}/standings.
func (h *StandingsHandler) Standings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	view, err := h.standingsService.Standings(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"standings": view})
}

// Export streams the live standings as an XLSX workbook.
func (h *StandingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	// Buffered so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.standingsService.ExportXLSX(r.Context(), tournamentID, &buf); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tournament-%d-standings.xlsx"`, tournamentID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to stream standings export",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err))
	}
}

// Snapshot serves the standings frozen when the tournament completed.
func (h *StandingsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	rows, err := h.standingsService.Snapshot(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"standings": rows})
}

func (h *StandingsHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	list, err := h.standingsService.Achievements(r.Context(), tournamentID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"achievements": list})
}
