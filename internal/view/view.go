// Package view renders html/template pages wrapped in the shared layout.
// Templates are cached outside dev mode (DEV=1 reparses every request).
package view

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diewo77/librairie/internal/auth"
	"github.com/diewo77/librairie/internal/catalog"
)

var (
	baseMu   sync.Mutex
	baseDir  string
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

// base resolves the template directory once, walking a few parent levels
// so tests running from package directories still find the templates root.
func base() string {
	baseMu.Lock()
	defer baseMu.Unlock()
	if baseDir != "" {
		return baseDir
	}
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return baseDir
		}
	}
	baseDir = "templates"
	return baseDir
}

// SetBaseDir overrides the template base directory (useful for tests).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseMu.Lock()
	baseDir = filepath.Clean(path)
	baseMu.Unlock()
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"year":   func() int { return time.Now().Year() },
		"fmtDec": catalog.FormatDecimal,
		"fmtDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		// until yields 1..n for pagination links.
		"until": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
		"add": func(a, b int) int { return a + b },
		// dict builds a map for passing several values to a sub-template.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Render executes the named page template inside layout.html. Common keys
// (Year, IsLoggedIn) are injected when the caller did not set them.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	dir := base()
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}

	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok && t != nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			return t.ExecuteTemplate(w, "layout.html", data)
		}
	}

	t, err := template.New("layout.html").Funcs(Funcs()).ParseFiles(
		filepath.Join(dir, "layout.html"),
		filepath.Join(dir, name),
	)
	if err != nil {
		return err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, "layout.html", data)
}
