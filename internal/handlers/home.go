package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/catalog"
	"github.com/diewo77/librairie/internal/httpx"
)

type HomeHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Service
}

func NewHomeHandler(db *gorm.DB, svc *catalog.Service) *HomeHandler {
	return &HomeHandler{DB: db, Catalog: svc}
}

// Home renders the public catalog with search, sort and pagination.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	result, err := h.Catalog.ListBooks(q.Get("q"), q.Get("sort"), page)
	if err != nil {
		http.Error(w, "erreur interne", http.StatusInternalServerError)
		return
	}
	render(w, r, "home.html", map[string]any{
		"Page":  result,
		"Query": result.Query,
		"Sort":  result.Sort,
	})
}

// Autocomplete returns a bare JSON array of matching titles for the
// incremental search box.
func (h *HomeHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	titles, err := h.Catalog.Autocomplete(r.URL.Query().Get("term"))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "autocomplete_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, titles)
}
