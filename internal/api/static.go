// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package api

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// staticHandler serves the compiled UI. Extension-less paths without a
// matching file get index.html so client-side routes survive a reload.
type staticHandler struct {
	root  fs.FS
	files http.Handler
}

func newStaticHandler(dir string) *staticHandler {
	root := os.DirFS(dir)
	return &staticHandler{root: root, files: http.FileServer(http.FS(root))}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "."
	}

	if _, err := fs.Stat(h.root, name); err == nil {
		h.files.ServeHTTP(w, r)
		return
	}

	if path.Ext(name) == "" {
		if _, err := fs.Stat(h.root, "index.html"); err == nil {
			http.ServeFileFS(w, r, h.root, "index.html")
			return
		}
	}

	WriteNotFound(w, r, "Resource not found")
}
