package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/stockgate/internal/access"
	"github.com/vbonduro/stockgate/internal/domain"
)

const maxUsernameLen = 200

func (s *Server) handleGateForm(w http.ResponseWriter, r *http.Request) {
	s.renderGate(w, http.StatusOK, nil, "", domain.CategoryResidents)
}

func (s *Server) handleGateEnter(w http.ResponseWriter, r *http.Request) {
	a := access.Attempt{
		Category:         domain.Category(r.FormValue("category")),
		Username:         strings.TrimSpace(r.FormValue("username")),
		Identifier:       r.FormValue("identifier"),
		VisitingResident: r.FormValue("resident"),
	}
	if len(a.Username) > maxUsernameLen {
		s.renderGate(w, http.StatusBadRequest, nil, "Username is too long.", a.Category)
		return
	}

	d, err := s.gate.Enter(r.Context(), a)
	switch {
	case err == nil:
		s.renderGate(w, http.StatusOK, &d, "", a.Category)
	case errors.Is(err, domain.ErrUnknownCategory):
		s.renderGate(w, http.StatusBadRequest, nil, "Unknown user type.", domain.CategoryResidents)
	case errors.Is(err, domain.ErrIdentifierRequired):
		s.renderGate(w, http.StatusUnprocessableEntity, nil, "An identifier is required to register.", a.Category)
	case errors.Is(err, domain.ErrInvalidUser):
		s.renderGate(w, http.StatusUnprocessableEntity, nil, "Please enter a username.", a.Category)
	default:
		s.logger.Error("gate entry failed", "category", a.Category, "error", err)
		s.renderGate(w, http.StatusInternalServerError, nil, "Entry could not be processed.", a.Category)
	}
}

func (s *Server) handleGateStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"open": s.gate.IsOpen()}); err != nil {
		s.logger.Error("write gate status failed", "error", err)
	}
}

func (s *Server) renderGate(w http.ResponseWriter, status int, d *access.Decision, message string, selected domain.Category) {
	residents, err := s.users.Usernames(domain.CategoryResidents)
	if err != nil {
		s.logger.Error("list residents failed", "error", err)
	}

	data := s.pageData("Gate", "gate")
	data["Decision"] = d
	data["Message"] = message
	data["Categories"] = s.users.Categories()
	data["Selected"] = selected
	data["Residents"] = residents
	data["Open"] = s.gate.IsOpen()

	if err := s.renderPage(w, status, data, "base.html", "pages/gate.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}
