// Package archive holds imported files and the ordered, append-only
// collection the archive page browses.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// File is one imported file. Its payload is read-only.
type File struct {
	ID        string
	Name      string
	Path      string
	Size      int64
	MediaType string
	ModTime   time.Time

	open func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the payload.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s: no payload", f.Name)
	}
	return f.open()
}

// FromPath imports a regular file from disk. The declared media type is
// derived from the extension the way a browser file picker reports it.
func FromPath(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}
	return &File{
		ID:        uuid.NewString(),
		Name:      info.Name(),
		Path:      abs,
		Size:      info.Size(),
		MediaType: DeclaredType(info.Name()),
		ModTime:   info.ModTime(),
		open:      func() (io.ReadCloser, error) { return os.Open(abs) },
	}, nil
}

// FromBytes wraps an in-memory payload.
func FromBytes(name, mediaType string, data []byte) *File {
	return &File{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      int64(len(data)),
		MediaType: mediaType,
		ModTime:   time.Now(),
		open: func() (io.ReadCloser, error) {
			return BytesReader(data), nil
		},
	}
}

// bytesReader is a seekable in-memory payload; the host serves seekable
// payloads with range support.
type bytesReader struct {
	*bytes.Reader
}

func (bytesReader) Close() error { return nil }

// BytesReader returns a seekable ReadCloser over data.
func BytesReader(data []byte) io.ReadCloser {
	return bytesReader{bytes.NewReader(data)}
}

// FromReader wraps a payload produced on demand, e.g. a failing source in
// tests or a lazily fetched body.
func FromReader(name, mediaType string, size int64, open func() (io.ReadCloser, error)) *File {
	return &File{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      size,
		MediaType: mediaType,
		ModTime:   time.Now(),
		open:      open,
	}
}
