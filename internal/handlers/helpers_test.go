package handlers

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/auth"
	"github.com/diewo77/librairie/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Author{}, &models.Category{}, &models.Book{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{Email: email, Password: string(hash), Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

// asUser binds a user id to the request context the way the session
// middleware does.
func asUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), user.ID))
}

// errorBody mirrors the JSON error envelope with typed details, which
// keeps the assertions short.
type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}
