// Package static serves files from an asset tree and answers misses with a
// designated not-found document.
package static

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	applog "github.com/janisto/huma-hello/internal/platform/logging"
	"github.com/janisto/huma-hello/internal/platform/respond"
)

const indexFile = "index.html"

// Server is the fallback handler for paths no route claimed.
type Server struct {
	assets   fs.FS
	notFound string
}

// New returns a Server reading from assets. notFound names the document, relative
// to the asset root, returned with status 404 when a request matches no file.
func New(assets fs.FS, notFound string) *Server {
	return &Server{assets: assets, notFound: strings.TrimPrefix(path.Clean("/"+notFound), "/")}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		detail := fmt.Sprintf("method %s not allowed", r.Method)
		if err := respond.Problem(w, r, http.StatusMethodNotAllowed, detail); err != nil {
			applog.LogError(r.Context(), "failed to render method not allowed", err)
		}
		return
	}

	name, ok := assetName(r.URL.Path)
	if ok {
		if f, info, err := s.open(name); err == nil {
			defer f.Close()
			http.ServeContent(w, r, info.Name(), info.ModTime(), f)
			return
		}
	}
	s.serveNotFound(w, r)
}

// assetName maps a URL path to an fs.FS name. The root maps to ".".
func assetName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	// Backslashes are separators on Windows hosts; refuse them everywhere.
	if strings.Contains(name, `\`) || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// open resolves name to a regular file, descending into index.html for directories.
func (s *Server) open(name string) (io.ReadSeekCloser, fs.FileInfo, error) {
	info, err := fs.Stat(s.assets, name)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		name = path.Join(name, indexFile)
		if info, err = fs.Stat(s.assets, name); err != nil {
			return nil, nil, err
		}
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	f, err := s.assets.Open(name)
	if err != nil {
		return nil, nil, err
	}
	rs, ok := f.(io.ReadSeekCloser)
	if !ok {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: file does not support seeking", name)
	}
	return rs, info, nil
}

// serveNotFound writes the not-found document with status 404, or a problem
// body when the document is missing.
func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	body, err := fs.ReadFile(s.assets, s.notFound)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			applog.LogWarn(r.Context(), "not found document unreadable",
				zap.String("document", s.notFound), zap.Error(err))
		}
		respond.NotFoundHandler().ServeHTTP(w, r)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(s.notFound))
	if ctype == "" {
		ctype = http.DetectContentType(body)
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusNotFound)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		applog.LogError(r.Context(), "failed to write not found document", err)
	}
}
