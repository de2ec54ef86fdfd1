// Package uploads stores user-submitted documents on local disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const DefaultMaxSize = 10 << 20 // 10MB

var (
	ErrNoFile       = errors.New("no file selected")
	ErrTooLarge     = errors.New("file too large")
	ErrBadExtension = errors.New("file extension not allowed")
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".json": true,
}

// Stored describes a file after it has been written to disk.
type Stored struct {
	Name string // stored filename, unique per upload
	Size int64
}

// Store writes validated files into a single directory. Stored names are
// random, so concurrent uploads of the same filename never collide.
type Store struct {
	dir     string
	maxSize int64
}

// NewStore creates dir if needed. maxSize values below 1 fall back to
// DefaultMaxSize.
func NewStore(dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxSize < 1 {
		maxSize = DefaultMaxSize
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// MaxSize is the per-file byte limit.
func (s *Store) MaxSize() int64 { return s.maxSize }

// Dir is the directory files are written into.
func (s *Store) Dir() string { return s.dir }

// Save validates filename's extension, then streams r to disk under a
// fresh unique name keeping the extension. A file exceeding the size limit
// is removed again and reported as ErrTooLarge.
func (s *Store) Save(filename string, r io.Reader) (Stored, error) {
	if strings.TrimSpace(filename) == "" {
		return Stored{}, ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return Stored{}, fmt.Errorf("%w: %q", ErrBadExtension, ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Stored{}, fmt.Errorf("create upload: %w", err)
	}

	// Copy one byte past the limit so oversize input is detectable without
	// buffering the whole file.
	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Stored{}, fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxSize {
		_ = os.Remove(path)
		return Stored{}, fmt.Errorf("%w: maximum %d bytes", ErrTooLarge, s.maxSize)
	}
	return Stored{Name: name, Size: n}, nil
}
