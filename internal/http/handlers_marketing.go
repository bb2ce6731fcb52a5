package http

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
)

// Marketing submissions are logged, not persisted. There is no CRM behind
// these endpoints yet; the log is the record.

type contactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Interest string `json:"interest"`
	Message  string `json:"message"`
}

type newsletterRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		writeBadRequest(w, "Name and message are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeBadRequest(w, "Invalid email address")
		return
	}

	slog.InfoContext(r.Context(), "Contact form received",
		"name", req.Name,
		"email", req.Email,
		"interest", req.Interest)
	writeJSON(w, http.StatusOK, "Transmission received and archived.", nil)
}

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeBadRequest(w, "Invalid email address")
		return
	}

	slog.InfoContext(r.Context(), "Newsletter subscription", "email", req.Email)
	writeJSON(w, http.StatusOK, "Sovereign pulse initialized.", nil)
}
