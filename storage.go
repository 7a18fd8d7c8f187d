package httpd

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

var (
	ErrStorageUnconfigured = errors.New("storage root not configured")
	ErrNotText             = errors.New("file content is not valid UTF-8")
)

// FileStore resolves file names under a single root directory. Names are
// not sanitized, and concurrent writers to one name race at the
// filesystem layer.
type FileStore struct {
	Root        string
	AllowBinary bool
}

// readPath is plain concatenation, so Root is expected to end in a slash.
func (s *FileStore) readPath(name string) string {
	return s.Root + name
}

func (s *FileStore) writePath(name string) string {
	return s.Root + "/" + name
}

func (s *FileStore) Read(name string) ([]byte, error) {
	if s.Root == "" {
		return nil, ErrStorageUnconfigured
	}
	b, err := os.ReadFile(s.readPath(name))
	if err != nil {
		return nil, err
	}
	if !s.AllowBinary && !utf8.Valid(b) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotText)
	}
	return b, nil
}

// Write creates or truncates name and writes data to it.
func (s *FileStore) Write(name string, data []byte) error {
	if s.Root == "" {
		return ErrStorageUnconfigured
	}
	f, err := os.Create(s.writePath(name))
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
