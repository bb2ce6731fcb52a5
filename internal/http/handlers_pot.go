package http

import (
	"net/http"
	"strconv"

	"expenseintel/internal/core"
)

// potResponse augments the stored pot with derived progress fields.
type potResponse struct {
	core.Pot
	Progress        float64    `json:"progress"`
	RemainingAmount core.Money `json:"remaining_amount"`
}

func toPotResponse(p core.Pot) potResponse {
	pct, remaining := p.Progress()
	return potResponse{Pot: p, Progress: pct, RemainingAmount: remaining}
}

func (s *Server) handleCreatePot(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var p core.Pot
	if err := decodeBody(r, &p); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	created, err := s.potSvc.Create(r.Context(), userID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Pot created successfully", toPotResponse(created))
}

func (s *Server) handleGetPot(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid pot ID")
		return
	}

	p, err := s.potSvc.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toPotResponse(p))
}

func (s *Server) handleListPots(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	pots, err := s.potSvc.List(r.Context(), userID, skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	responses := make([]potResponse, 0, len(pots))
	for _, p := range pots {
		responses = append(responses, toPotResponse(p))
	}
	writeSuccess(w, http.StatusOK, responses)
}

func (s *Server) handleUpdatePot(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid pot ID")
		return
	}

	var upd core.PotUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	updated, err := s.potSvc.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Pot updated successfully", toPotResponse(updated))
}

func (s *Server) handleDeletePot(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid pot ID")
		return
	}

	if err := s.potSvc.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Pot deleted successfully", nil)
}
