package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/inventory"
)

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	s.renderInventory(w, http.StatusOK, s.inventory.List(), "", "", nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Redirect(w, r, "/inventory", http.StatusSeeOther)
		return
	}

	item, err := s.inventory.Search(query)
	if errors.Is(err, domain.ErrNotFound) {
		s.renderInventory(w, http.StatusNotFound, nil, query, "Item not found.", nil)
		return
	}
	if err != nil {
		http.Error(w, "search failed", http.StatusInternalServerError)
		s.logger.Error("search failed", "query", query, "error", err)
		return
	}
	s.renderInventory(w, http.StatusOK, []domain.Item{item}, query, "", nil)
}

func (s *Server) renderInventory(w http.ResponseWriter, status int, items []domain.Item, query, message string, report *inventory.IntakeReport) {
	data := s.pageData("Inventory", "inventory")
	data["Items"] = items
	data["Totals"] = s.inventory.Totals()
	data["Query"] = query
	data["Message"] = message
	data["Report"] = report
	data["PhotoRestock"] = s.inventory.PhotoRestockEnabled()

	if err := s.renderPage(w, status, data, "base.html", "pages/inventory.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}
