package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/catalog"
	"github.com/diewo77/librairie/internal/models"
)

type AccountHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Service
}

func NewAccountHandler(db *gorm.DB, svc *catalog.Service) *AccountHandler {
	return &AccountHandler{DB: db, Catalog: svc}
}

// Account shows the management page. Administrators see the full catalog
// with the create/update/delete forms; clients get a plain account page.
func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.DB, r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	render(w, r, "account.html", accountData(h.DB, h.Catalog, r))
}

// accountData assembles the template data for account.html. The book
// handlers reuse it when re-rendering the page with form errors.
func accountData(db *gorm.DB, svc *catalog.Service, r *http.Request) map[string]any {
	user := currentUser(db, r)
	data := map[string]any{
		"User":    user,
		"IsAdmin": user != nil && user.IsAdmin(),
	}
	if user == nil || !user.IsAdmin() {
		return data
	}
	books, err := svc.AllBooks()
	if err != nil {
		books = []models.Book{}
	}
	cats, err := svc.AllCategories()
	if err != nil {
		cats = []models.Category{}
	}
	data["Books"] = books
	data["Categories"] = cats
	return data
}
