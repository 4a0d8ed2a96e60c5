package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/catalog"
	"github.com/diewo77/librairie/internal/httpx"
	"github.com/diewo77/librairie/internal/policy"
)

type CategoryHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Service
}

func NewCategoryHandler(db *gorm.DB, svc *catalog.Service) *CategoryHandler {
	return &CategoryHandler{DB: db, Catalog: svc}
}

// APICreate creates a category from `{"categoryName": ...}`. The account
// page posts here too, so the error body is always JSON.
func (h *CategoryHandler) APICreate(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.DB, policy.ActionCreate, policy.ResourceCategory) {
		return
	}
	var input struct {
		CategoryName string `json:"categoryName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	cat, v, err := h.Catalog.CreateCategory(input.CategoryName)
	if errors.Is(err, catalog.ErrConflict) {
		httpx.JSONError(w, http.StatusConflict, "category_exists", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "create_failed", nil)
		return
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": cat.ID, "name": cat.Name})
}
