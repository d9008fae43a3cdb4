package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-standings/services"
)

type FormulaHandler struct {
	responder
	formulaService services.FormulaService
}

func NewFormulaHandler(fs services.FormulaService, logger *slog.Logger) *FormulaHandler {
	return &FormulaHandler{
		responder:      responder{logger: logger},
		formulaService: fs,
	}
}

func (h *FormulaHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to create a formula")
		return
	}

	var input services.FormulaInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	formula, err := h.formulaService.CreateFormula(r.Context(), actor, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeOrLog(w, r, http.StatusCreated, jsonResponse{"formula": formula})
}

func (h *FormulaHandler) List(w http.ResponseWriter, r *http.Request) {
	formulas, err := h.formulaService.ListFormulas(r.Context())
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"formulas": formulas})
}

func (h *FormulaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "formulaID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	formula, err := h.formulaService.GetFormula(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"formula": formula})
}

// Update replaces the formula; tournaments using it are recomputed.
func (h *FormulaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "formulaID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to update a formula")
		return
	}

	var input services.FormulaInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	formula, err := h.formulaService.UpdateFormula(r.Context(), actor, id, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"formula": formula})
}

func (h *FormulaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "formulaID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to delete a formula")
		return
	}

	if err := h.formulaService.DeleteFormula(r.Context(), actor, id); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview evaluates sample outcomes, or a whole tournament, under a formula
// without assigning it.
func (h *FormulaHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "formulaID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input services.PreviewInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.formulaService.PreviewFormula(r.Context(), id, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOrLog(w, r, http.StatusOK, jsonResponse{"preview": result})
}
