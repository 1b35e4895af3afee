// Package preview serves a generated dictionary tree over HTTP so that the
// frontend can be developed against a local build.
package preview

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Config holds configuration for the preview handler
type Config struct {
	// DataDir is served below /data/
	DataDir string

	// FunctionsDir is served below /functions/
	FunctionsDir string

	Logger *zap.Logger
}

// NewHandler creates the preview router.
func NewHandler(config *Config) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/data/apps.json", http.StatusFound)
	})
	r.Method(http.MethodGet, "/data/*", fileServer(config.DataDir, "/data"))
	r.Method(http.MethodHead, "/data/*", fileServer(config.DataDir, "/data"))
	r.Method(http.MethodGet, "/functions/*", fileServer(config.FunctionsDir, "/functions"))
	r.Method(http.MethodHead, "/functions/*", fileServer(config.FunctionsDir, "/functions"))

	return r
}

// fileServer serves files below root with the prefix stripped. Directories
// are never listed.
func fileServer(root, prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := path.Clean("/" + strings.TrimPrefix(r.URL.Path, prefix))
		if strings.Contains(urlPath, "..") {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}

		filePath := filepath.Join(root, filepath.FromSlash(urlPath))
		absRoot, err := filepath.Abs(root)
		if err != nil {
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
		absFile, err := filepath.Abs(filePath)
		if err != nil || (absFile != absRoot && !strings.HasPrefix(absFile, absRoot+string(filepath.Separator))) {
			http.Error(w, "Invalid path", http.StatusForbidden)
			return
		}

		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if info.IsDir() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// A rebuild replaces files in place; always revalidate.
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Type", contentType(filePath))
		w.Header().Set("ETag", fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().UnixNano()))

		http.ServeFile(w, r, filePath)
	})
}

// contentType covers the file kinds a build emits.
func contentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return "application/json; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
