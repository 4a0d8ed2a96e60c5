// Package server assembles the route table and the middleware chain.
package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/diewo77/librairie/internal/auth"
	"github.com/diewo77/librairie/internal/catalog"
	"github.com/diewo77/librairie/internal/handlers"
	"github.com/diewo77/librairie/internal/httpx"
	"github.com/diewo77/librairie/internal/middleware"
	"github.com/diewo77/librairie/internal/models"
)

// New constructs the root http.Handler with all routes and middlewares.
func New(db *gorm.DB, logger zerolog.Logger) http.Handler {
	// Stale cookies for deleted users are cleared on the next guarded page.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	svc := catalog.NewService(db)
	ah := handlers.NewAuthHandler(db)
	bh := handlers.NewBookHandler(db, svc)
	ch := handlers.NewCategoryHandler(db, svc)
	hh := handlers.NewHomeHandler(db, svc)
	acc := handlers.NewAccountHandler(db, svc)

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public pages
	mux.HandleFunc("GET /{$}", hh.Home)
	mux.HandleFunc("GET /login", ah.Login)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("GET /register", ah.Register)
	mux.HandleFunc("POST /register", ah.Register)
	mux.HandleFunc("POST /logout", ah.Logout)

	// Account pages (session required; writes go through the policy too)
	mux.Handle("GET /account", auth.RequireAuth(http.HandlerFunc(acc.Account)))
	mux.HandleFunc("POST /account/book/create", bh.FormCreate)
	mux.HandleFunc("POST /account/book/{id}/update", bh.FormUpdate)
	mux.HandleFunc("POST /account/book/{id}/delete", bh.FormDelete)

	// JSON API, rate limited
	limited := middleware.RateLimit(rate.Limit(20), 40)
	mux.Handle("POST /api/signup", limited(http.HandlerFunc(ah.APISignup)))
	mux.Handle("GET /api/books", limited(http.HandlerFunc(bh.APIList)))
	mux.Handle("POST /api/books", limited(http.HandlerFunc(bh.APICreate)))
	mux.Handle("POST /api/category", limited(http.HandlerFunc(ch.APICreate)))
	mux.Handle("GET /api/search-autocomplete", limited(http.HandlerFunc(hh.Autocomplete)))

	// Static files (covers, scripts)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Routing misses land back on the home page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return middleware.Recover(middleware.Logging(logger)(middleware.CORS()(auth.Middleware(mux))))
}
