package sandbox

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Title   string
	Src     string
	Sandbox string
	Kind    string
	Type    string
}

type handler struct {
	reg *objref.Registry
	log logging.Logger
}

// NewHandler routes reference, frame and preview requests.
//
//	GET /ref/{id}      payload bytes
//	GET /frame/{id}    sandboxed frame page around /ref/{id}
//	GET /preview/{id}  native media page (?kind=image|video|audio|pdf)
//	GET /healthz
//
// Pages are gzip-compressed; /ref is served as-is so range requests used by
// media seeking keep working.
func NewHandler(reg *objref.Registry, log logging.Logger) http.Handler {
	h := &handler{reg: reg, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ref/{id}", h.handleRef)
	mux.Handle("GET /frame/{id}", gzhttp.GzipHandler(http.HandlerFunc(h.handleFrame)))
	mux.Handle("GET /preview/{id}", gzhttp.GzipHandler(http.HandlerFunc(h.handlePreview)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}

func (h *handler) handleRef(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rc, contentType, err := h.reg.Open(id)
	if err != nil {
		if errors.Is(err, objref.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Warn(r.Context(), "open reference", "ref", id, "err", err)
		http.Error(w, "payload unavailable", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", contentType)
	hdr.Set("Cache-Control", "no-store")
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Referrer-Policy", "no-referrer")
	if isActiveDocument(contentType) {
		// Applies the same grant when the reference is opened outside the frame.
		hdr.Set("Content-Security-Policy", "sandbox "+Flags)
	}

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", time.Time{}, rs)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Debug(r.Context(), "reference copy interrupted", "ref", id, "err", err)
	}
}

func isActiveDocument(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "image/svg+xml") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

func (h *handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.reg.Live(id) {
		http.NotFound(w, r)
		return
	}
	h.render(r.Context(), w, "frame.html", pageData{
		Title:   titleOf(r),
		Src:     "/ref/" + id,
		Sandbox: Flags,
	})
}

func (h *handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	contentType, ok := h.reg.ContentType(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	kind := r.URL.Query().Get("kind")
	switch kind {
	case "image", "video", "audio", "pdf":
	default:
		http.Error(w, "unsupported preview kind", http.StatusBadRequest)
		return
	}
	h.render(r.Context(), w, "preview.html", pageData{
		Title: titleOf(r),
		Src:   "/ref/" + id,
		Kind:  kind,
		Type:  contentType,
	})
}

func (h *handler) render(ctx context.Context, w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error(ctx, "render page", "page", name, "err", err)
	}
}

func titleOf(r *http.Request) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	return "trove"
}
