// Package content acquires object references for files and decodes their
// text for code-like categories.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/objref"
)

// DecodeFailedPlaceholder is shown in place of text that could not be read.
const DecodeFailedPlaceholder = "Loading binary sequence..."

var ErrDecode = errors.New("decode text")

// Loader binds files to the object-reference registry.
type Loader struct {
	reg *objref.Registry
}

func NewLoader(reg *objref.Registry) *Loader {
	return &Loader{reg: reg}
}

// Acquire creates one new revocable reference to f's payload. The caller
// owns it and must revoke it.
func (l *Loader) Acquire(f *archive.File) objref.Ref {
	return l.reg.Create(objref.SourceFunc(f.Open), f.MediaType)
}

// Registry exposes the backing registry.
func (l *Loader) Registry() *objref.Registry { return l.reg }

// DecodeText reads the whole payload as UTF-8. Invalid sequences become
// U+FFFD; read failures return an error wrapping ErrDecode.
func DecodeText(ctx context.Context, f *archive.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDecode, f.Name, err)
	}
	defer rc.Close()

	dec := unicode.UTF8.NewDecoder()
	r := transform.NewReader(ctxReader{ctx: ctx, r: rc}, dec)
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDecode, f.Name, err)
	}
	return string(data), nil
}

// ctxReader stops a long read once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
