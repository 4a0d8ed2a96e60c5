package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/auth"
	"github.com/diewo77/librairie/internal/httpx"
	"github.com/diewo77/librairie/internal/models"
	"github.com/diewo77/librairie/internal/validation"
)

const minPasswordLength = 8

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

// Login renders the form on GET and authenticates on POST. Failures
// re-display the form with a generic error that does not reveal which
// field was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if currentUser(h.DB, r) != nil {
			http.Redirect(w, r, "/account", http.StatusSeeOther)
			return
		}
		render(w, r, "login.html", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	pass := r.FormValue("password")
	if email == "" || pass == "" {
		render(w, r, "login.html", map[string]any{"Error": "invalid credentials", "Email": email})
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		render(w, r, "login.html", map[string]any{"Error": "invalid credentials", "Email": email})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)) != nil {
		render(w, r, "login.html", map[string]any{"Error": "invalid credentials", "Email": email})
		return
	}
	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

// Register handles the page signup flow. New accounts always get the
// client role; administrators are promoted out of band.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if currentUser(h.DB, r) != nil {
			http.Redirect(w, r, "/account", http.StatusSeeOther)
			return
		}
		render(w, r, "register.html", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	pass := r.FormValue("password")
	if v := h.createUser(email, pass); !v.Empty() {
		w.WriteHeader(http.StatusBadRequest)
		render(w, r, "register.html", map[string]any{"Errors": v, "Email": email})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout invalidates the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// APISignup is the JSON counterpart of Register: 201 with the public
// fields on success (the password is never echoed), 400 with field
// errors otherwise.
func (h *AuthHandler) APISignup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	email := strings.TrimSpace(input.Email)
	if v := h.createUser(email, input.Password); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"email": email})
}

// createUser validates and persists a client account, returning field
// violations. Nothing is written when the result is non-empty.
func (h *AuthHandler) createUser(email, pass string) validation.Violations {
	v := validation.Violations{}
	validation.Required("email", email, v)
	if _, bad := v["email"]; !bad {
		validation.Email("email", email, v)
	}
	validation.Required("password", pass, v)
	if _, bad := v["password"]; !bad {
		validation.MinLength("password", pass, minPasswordLength, v)
	}
	if !v.Empty() {
		return v
	}
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		v.Add("email", "lookup_failed")
		return v
	}
	if count > 0 {
		v.Add("email", "already_registered")
		return v
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		v.Add("password", "hash_failed")
		return v
	}
	user := models.User{Email: email, Password: string(hash), Role: models.RoleClient}
	if err := h.DB.Create(&user).Error; err != nil {
		// Unique index race: treat like the pre-check.
		v.Add("email", "already_registered")
	}
	return v
}
