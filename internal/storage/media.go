// Package storage keeps uploaded media files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNoFilename is returned when an upload carries no usable file name. The
// name is needed to keep the file extension.
var ErrNoFilename = errors.New("image name is not specified")

// MediaStore writes uploaded files into one directory of a filesystem. Files
// are never overwritten: a taken name gets a unique prefix.
type MediaStore struct {
	// mu serializes name reservation for filesystems without an atomic
	// O_EXCL, such as afero.MemMapFs.
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

// NewMediaStore creates the media directory if needed.
func NewMediaStore(fs afero.Fs, dir string) (*MediaStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
	}
	return &MediaStore{fs: fs, dir: dir}, nil
}

// NewOSMediaStore creates a MediaStore on the local disk.
func NewOSMediaStore(dir string) (*MediaStore, error) {
	return NewMediaStore(afero.NewOsFs(), dir)
}

// Save writes content under an available name derived from filename and
// returns that name.
func (s *MediaStore) Save(filename string, content io.Reader) (string, error) {
	base, ok := cleanName(filename)
	if !ok {
		return "", ErrNoFilename
	}

	file, name, err := s.create(base)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(file, content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.fs.Remove(s.Path(name))
		return "", fmt.Errorf("failed to write media file %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a stored file.
func (s *MediaStore) Remove(name string) error {
	return s.fs.Remove(s.Path(name))
}

// Open returns a reader for a stored file. Names that are not plain file
// names, and directories, are reported as os.ErrNotExist.
func (s *MediaStore) Open(name string) (afero.File, error) {
	if base, ok := cleanName(name); !ok || base != name {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	file, err := s.fs.Open(s.Path(name))
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return file, nil
}

// Path returns where name is stored.
func (s *MediaStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// create reserves an unused name by creating the file exclusively.
func (s *MediaStore) create(filename string) (afero.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := filename
	for {
		file, err := s.fs.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create media file %s: %w", name, err)
		}
		name = strings.ReplaceAll(uuid.New().String(), "-", "") + "_" + filename
	}
}

// cleanName strips any directory part from name.
func cleanName(name string) (string, bool) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.TrimSpace(base) == "" {
		return "", false
	}
	return base, true
}
