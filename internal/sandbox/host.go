// Package sandbox serves object references and the isolated frames that run
// untrusted web code, on a loopback-only HTTP listener owned by the process.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
)

// Flags is the exact capability grant of every run surface. Anything not
// listed, top navigation and pointer/orientation lock included, stays denied.
const Flags = "allow-scripts allow-modals allow-popups allow-forms allow-same-origin"

var ErrNotLoopback = errors.New("sandbox host must listen on a loopback address")

// Surface is an isolated browsing surface presented for a file.
type Surface struct {
	// URL is the host page embedding the sandboxed frame.
	URL string
	// Target is the reference the frame loads.
	Target objref.Ref
	Markup bool
}

// Host is the loopback HTTP server.
type Host struct {
	ln   net.Listener
	srv  *http.Server
	base string
	log  logging.Logger
}

// Listen binds addr, which must resolve to a loopback address. Port 0 picks
// a free port.
func Listen(addr string, log logging.Logger) (*Host, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("sandbox addr %q: %w", addr, err)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return nil, fmt.Errorf("%w: %s", ErrNotLoopback, addr)
		}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sandbox listen: %w", err)
	}
	return &Host{
		ln:   ln,
		base: "http://" + ln.Addr().String(),
		log:  log,
	}, nil
}

// BaseURL is the scheme://host:port prefix of every served URL.
func (h *Host) BaseURL() string { return h.base }

// Serve starts serving reg in the background.
func (h *Host) Serve(reg *objref.Registry) {
	h.srv = &http.Server{
		Handler:           NewHandler(reg, h.log),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error(context.Background(), "sandbox host stopped", "err", err)
		}
	}()
	h.log.Info(context.Background(), "sandbox host listening", "url", h.base)
}

// Close shuts the server down gracefully.
func (h *Host) Close(ctx context.Context) error {
	if h.srv == nil {
		return h.ln.Close()
	}
	return h.srv.Shutdown(ctx)
}

// Present returns the surface that runs target in a sandboxed frame. For
// markup target is the original file's reference; for other dialects it is
// the synthesized runner document's.
func (h *Host) Present(target objref.Ref, markup bool, name string) Surface {
	return Surface{
		URL:    h.base + "/frame/" + target.ID + "?name=" + url.QueryEscape(name),
		Target: target,
		Markup: markup,
	}
}

// PreviewURL returns a native browser preview page for media references.
func (h *Host) PreviewURL(ref objref.Ref, cat classify.Category, name string) string {
	return h.base + "/preview/" + ref.ID + "?kind=" + cat.String() + "&name=" + url.QueryEscape(name)
}
