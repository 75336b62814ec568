package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static/*
var staticAssets embed.FS

// StaticHandler serves the embedded web UI. Unknown paths fall back to
// index.html so the page can deep-link.
type StaticHandler struct {
	fileServer http.Handler
	assets     fs.FS
}

func NewStaticHandler() *StaticHandler {
	assets, err := fs.Sub(staticAssets, "static")
	if err != nil {
		panic("static subdirectory missing: " + err.Error())
	}
	return &StaticHandler{
		fileServer: http.FileServer(http.FS(assets)),
		assets:     assets,
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path != "" {
		if _, err := fs.Stat(h.assets, path); err != nil {
			r.URL.Path = "/"
		}
	}
	h.fileServer.ServeHTTP(w, r)
}
