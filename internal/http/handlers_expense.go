package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	created, err := s.expenseSvc.Create(r.Context(), userID, e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Expense created successfully", created)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid expense ID")
		return
	}

	e, err := s.expenseSvc.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, e)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	filter, err := parseExpenseFilter(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	list, err := s.expenseSvc.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid expense ID")
		return
	}

	var upd core.ExpenseUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	updated, err := s.expenseSvc.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Expense updated successfully", updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "Invalid expense ID")
		return
	}

	if err := s.expenseSvc.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Expense deleted successfully", nil)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeBadRequest(w, "Query parameter 'year' is required")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeBadRequest(w, "Query parameter 'month' is required")
		return
	}

	summary, err := s.expenseSvc.MonthlySummary(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, summary)
}

func parseExpenseFilter(r *http.Request) (storage.ExpenseFilter, error) {
	q := r.URL.Query()
	f := storage.ExpenseFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search_query")),
	}

	if v := q.Get("avoidable"); v != "" {
		avoidable, err := strconv.ParseBool(v)
		if err != nil {
			return f, errBadQuery("avoidable")
		}
		f.Avoidable = &avoidable
	}
	if v := q.Get("start_date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, errBadQuery("start_date")
		}
		f.StartDate = &d
	}
	if v := q.Get("end_date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, errBadQuery("end_date")
		}
		f.EndDate = &d
	}
	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return f, errBadQuery("skip")
		}
		f.Skip = skip
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return f, errBadQuery("limit")
		}
		f.Limit = limit
	}
	if v := q.Get("sort_by"); v != "" {
		field := storage.SortField(v)
		if !field.IsValid() {
			return f, errBadQuery("sort_by")
		}
		f.SortBy = field
	}
	if v := q.Get("sort_order"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil || (order != -1 && order != 1) {
			return f, errBadQuery("sort_order")
		}
		f.SortOrder = storage.SortOrder(order)
	}

	return f, nil
}

type queryError string

func (e queryError) Error() string {
	return "Invalid query parameter '" + string(e) + "'"
}

func errBadQuery(param string) error {
	return queryError(param)
}
