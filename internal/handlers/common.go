package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/auth"
	"github.com/diewo77/librairie/internal/httpx"
	"github.com/diewo77/librairie/internal/models"
	"github.com/diewo77/librairie/internal/policy"
	"github.com/diewo77/librairie/internal/view"
)

// currentUser loads the user bound to the request session, or nil.
func currentUser(db *gorm.DB, r *http.Request) *models.User {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return nil
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		return nil
	}
	return &user
}

// render wraps view.Render so template failures never leak internals.
func render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// authorize runs the policy checkpoint and writes the 403 JSON body on
// denial. Both the form flows and the API share this response shape.
func authorize(w http.ResponseWriter, r *http.Request, db *gorm.DB, action policy.Action, resource string) bool {
	p := policy.FromUser(currentUser(db, r))
	if err := policy.Authorize(p, action, resource); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return false
	}
	return true
}
