// Package uploads stores user-submitted post images on local disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the stored path prefix; files are served under /static/<stored path>.
const URLPrefix = "uploads"

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type Saver struct {
	Dir      string
	MaxBytes int64 // 0 means unlimited
}

func New(dir string, maxBytes int64) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Saver{Dir: dir, MaxBytes: maxBytes}, nil
}

// Save writes r under a random name keeping filename's extension and
// returns the stored path, "uploads/<uuid><ext>".
func (s *Saver) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path.Join(URLPrefix, name), nil
}

// Remove deletes a file previously returned by Save.
func (s *Saver) Remove(stored string) error {
	name := strings.TrimPrefix(stored, URLPrefix+"/")
	if name == stored || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("not an upload path: %q", stored)
	}
	return os.Remove(filepath.Join(s.Dir, name))
}
