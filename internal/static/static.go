// Package static serves the front-end assets.
package static

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Handler serves files under dir. "/" resolves to index.html and http.Dir keeps
// lookups inside dir. Dot-files (.env, .git) and directories without an
// index.html answer 404, so the server never lists or leaks the working tree.
// With noCache set every response is marked uncacheable.
func Handler(dir string, noCache bool) http.Handler {
	if dir == "" {
		dir = "."
	}
	var h http.Handler = http.FileServer(publicFS{root: http.Dir(dir)})
	if noCache {
		h = chimw.NoCache(h)
	}
	return h
}

// publicFS hides everything that is not a servable asset.
type publicFS struct {
	root http.FileSystem
}

func (p publicFS) Open(name string) (http.File, error) {
	if hidden(name) {
		return nil, fs.ErrNotExist
	}
	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		index, err := p.root.Open(path.Join(name, "index.html"))
		if err != nil {
			f.Close()
			return nil, fs.ErrNotExist
		}
		index.Close()
	}
	return f, nil
}

func hidden(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
