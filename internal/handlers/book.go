package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/catalog"
	"github.com/diewo77/librairie/internal/httpx"
	"github.com/diewo77/librairie/internal/policy"
	"github.com/diewo77/librairie/internal/validation"
)

type BookHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Service
}

func NewBookHandler(db *gorm.DB, svc *catalog.Service) *BookHandler {
	return &BookHandler{DB: db, Catalog: svc}
}

// APIList serializes the whole catalog.
func (h *BookHandler) APIList(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.AllBooks()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "list_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, catalog.NewBookPayloads(books))
}

// APICreate creates a book from a JSON body. Administrator-only; price
// and rate accept both JSON numbers and strings (json.Number keeps the
// raw text for the shared validator).
func (h *BookHandler) APICreate(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.DB, policy.ActionCreate, policy.ResourceBook) {
		return
	}
	var input struct {
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Price       json.Number `json:"price"`
		Author      string      `json:"author"`
		Date        string      `json:"date"`
		Rate        json.Number `json:"rate"`
		Cover       string      `json:"cover"`
		Categories  []uint      `json:"categories"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	book, v, err := h.Catalog.CreateBook(catalog.BookInput{
		Title:       input.Title,
		Description: input.Description,
		Author:      input.Author,
		Price:       input.Price.String(),
		Date:        input.Date,
		Rate:        input.Rate.String(),
		Cover:       input.Cover,
		Categories:  input.Categories,
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "create_failed", nil)
		return
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	httpx.JSON(w, http.StatusCreated, catalog.NewBookPayload(book))
}

// FormCreate handles the account-page create form. Violations re-render
// the account page with the submitted values and a 400 status.
func (h *BookHandler) FormCreate(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.DB, policy.ActionCreate, policy.ResourceBook) {
		return
	}
	input, ok := h.formInput(w, r)
	if !ok {
		return
	}
	_, v, err := h.Catalog.CreateBook(input)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "create_failed", nil)
		return
	}
	if !v.Empty() {
		h.renderAccountWithErrors(w, r, v, input)
		return
	}
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

// FormUpdate applies a full update to the book in the path.
func (h *BookHandler) FormUpdate(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.DB, policy.ActionUpdate, policy.ResourceBook) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, ok := h.formInput(w, r)
	if !ok {
		return
	}
	_, v, err := h.Catalog.UpdateBook(id, input)
	if errors.Is(err, catalog.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "update_failed", nil)
		return
	}
	if !v.Empty() {
		h.renderAccountWithErrors(w, r, v, input)
		return
	}
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

// FormDelete removes the book in the path.
func (h *BookHandler) FormDelete(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, h.DB, policy.ActionDelete, policy.ResourceBook) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteBook(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "delete_failed", nil)
		return
	}
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

// formInput reads the shared book fields from a form submission. A
// category value that is not an id re-renders the page with a field
// violation rather than mutating with a smaller set than submitted.
func (h *BookHandler) formInput(w http.ResponseWriter, r *http.Request) (catalog.BookInput, bool) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return catalog.BookInput{}, false
	}
	input := catalog.BookInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Author:      r.FormValue("author"),
		Price:       r.FormValue("price"),
		Date:        r.FormValue("date"),
		Rate:        r.FormValue("rate"),
		Cover:       r.FormValue("cover"),
	}
	for _, raw := range r.Form["categories"] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			v := validation.Violations{}
			v.Add("categories", "invalid_category")
			h.renderAccountWithErrors(w, r, v, input)
			return catalog.BookInput{}, false
		}
		input.Categories = append(input.Categories, uint(id))
	}
	return input, true
}

func (h *BookHandler) renderAccountWithErrors(w http.ResponseWriter, r *http.Request, v map[string]string, input catalog.BookInput) {
	data := accountData(h.DB, h.Catalog, r)
	data["Errors"] = v
	data["Form"] = input
	w.WriteHeader(http.StatusBadRequest)
	render(w, r, "account.html", data)
}

// pathID parses the {id} path segment, answering 404 for garbage.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id64 == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return 0, false
	}
	return uint(id64), true
}
