package http

import (
	"net/http"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	analysis, err := s.aiSvc.AnalyzeExpenses(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, analysis)
}
