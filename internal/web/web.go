// Package web serves the embedded landing page.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"time"
)

// LandingPath is the target of the root redirect.
const LandingPath = "/static/index.html"

//go:embed static
var staticFS embed.FS

// RegisterRoutes mounts the static assets under /static/ and redirects / to
// the landing page.
func RegisterRoutes(mux *http.ServeMux) {
	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	index, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		panic(err)
	}

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(assets)))
	// http.FileServer redirects .../index.html to .../, so the landing page is
	// served directly to keep LandingPath stable.
	mux.HandleFunc("GET "+LandingPath, func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(index))
	})
	mux.HandleFunc("GET /{$}", redirectToLanding)
}

func redirectToLanding(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, LandingPath, http.StatusTemporaryRedirect)
}
