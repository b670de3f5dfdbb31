// Package static embeds the frontend build. The build output is copied to
// static/dist before compiling; in development dist only holds .gitkeep and
// the Vite dev server serves the UI.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:dist
var FrontendFS embed.FS

// Handler serves the embedded SPA. Unknown paths fall back to index.html so
// client-side routes survive a reload. Paths under /api/ never fall back.
func Handler() http.Handler {
	dist, err := fs.Sub(FrontendFS, "dist")
	if err != nil {
		// Cannot happen with the embed directive above.
		panic(err)
	}
	return spaHandler(dist)
}

func spaHandler(dist fs.FS) http.Handler {
	files := http.FileServerFS(dist)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name != "" && !strings.HasPrefix(path.Base(name), ".") {
			if info, err := fs.Stat(dist, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		index, err := fs.ReadFile(dist, "index.html")
		if err != nil {
			http.Error(w, "frontend not built", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(index)
	})
}
