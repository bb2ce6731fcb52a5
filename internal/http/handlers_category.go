package http

import (
	"net/http"

	"expenseintel/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var c core.Category
	if err := decodeBody(r, &c); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	created, err := s.categorySvc.Create(r.Context(), userID, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Category created successfully", created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	categories, err := s.categorySvc.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, categories)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid category ID")
		return
	}

	var upd core.CategoryUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	updated, err := s.categorySvc.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Category updated successfully", updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid category ID")
		return
	}

	if err := s.categorySvc.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Category deleted successfully", nil)
}
