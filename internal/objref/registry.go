// Package objref hands out revocable locators for in-memory or on-disk
// payloads so the sandbox host can serve them by id.
//
// A Ref is live from Create until Revoke; afterwards its URL no longer
// resolves. The registry is safe for concurrent use: the HTTP host reads it
// from server goroutines while the UI goroutine creates and revokes.
package objref

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("object reference not found or revoked")
)

// Source opens a fresh reader over a payload.
type Source interface {
	Open() (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (io.ReadCloser, error)

func (f SourceFunc) Open() (io.ReadCloser, error) { return f() }

// Ref is a dereferenceable locator for a payload.
type Ref struct {
	ID          string
	URL         string
	ContentType string
}

// IsZero reports whether r is the empty Ref.
func (r Ref) IsZero() bool { return r.ID == "" }

// Stats counts registry activity.
type Stats struct {
	Created int
	Revoked int
	Live    int
}

type entry struct {
	src         Source
	contentType string
}

// Registry stores live references.
type Registry struct {
	mu      sync.RWMutex
	base    string
	entries map[string]entry
	created int
	revoked int
}

// NewRegistry creates a registry whose URLs are base + "/ref/" + id.
func NewRegistry(base string) *Registry {
	return &Registry{
		base:    strings.TrimRight(base, "/"),
		entries: make(map[string]entry),
	}
}

// Create registers src and returns its reference.
func (r *Registry) Create(src Source, contentType string) Ref {
	id := uuid.NewString()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = entry{src: src, contentType: contentType}
	r.created++
	return Ref{ID: id, URL: r.base + "/ref/" + id, ContentType: contentType}
}

// CreateBytes registers an in-memory payload.
func (r *Registry) CreateBytes(data []byte, contentType string) Ref {
	return r.Create(SourceFunc(func() (io.ReadCloser, error) {
		return readSeekCloser{bytes.NewReader(data)}, nil
	}), contentType)
}

// Revoke invalidates ref. It returns true only for the call that actually
// revoked it.
func (r *Registry) Revoke(ref Ref) bool {
	if ref.IsZero() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[ref.ID]; !ok {
		return false
	}
	delete(r.entries, ref.ID)
	r.revoked++
	return true
}

// Open dereferences id.
func (r *Registry) Open(id string) (io.ReadCloser, string, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, "", ErrNotFound
	}
	rc, err := e.src.Open()
	if err != nil {
		return nil, "", err
	}
	return rc, e.contentType, nil
}

// Live reports whether id is still dereferenceable.
func (r *Registry) Live(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// ContentType returns the stored type for a live id.
func (r *Registry) ContentType(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e.contentType, ok
}

type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Created: r.created, Revoked: r.revoked, Live: len(r.entries)}
}
