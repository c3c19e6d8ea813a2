package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrInvalidFileName is returned for names that would escape the export directory
var ErrInvalidFileName = errors.New("invalid export file name")

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=storage.go Storage,File

// Storage creates export files
type Storage interface {
	// Create opens a new file that only becomes visible under name on Commit
	Create(name string) (File, error)

	// Dir is the directory holding committed files
	Dir() string
}

// File is an export file being written
type File interface {
	io.Writer

	// Commit makes the file visible and returns its location
	Commit() (string, error)

	// Abort discards the file; it is a no-op after Commit
	Abort() error
}

// fileStorage writes into a directory through a temporary file and an
// atomic rename, so readers never see a partial export
type fileStorage struct {
	fs  afero.Fs
	dir string
}

// NewFileStorage creates a Storage rooted at dir on fs
func NewFileStorage(fs afero.Fs, dir string) Storage {
	return &fileStorage{fs: fs, dir: dir}
}

// NewOSStorage creates a Storage rooted at dir on the local filesystem
func NewOSStorage(dir string) Storage {
	return NewFileStorage(afero.NewOsFs(), dir)
}

func (s *fileStorage) Dir() string { return s.dir }

// ValidateFileName rejects names that are empty, hidden or contain a path
func ValidateFileName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

func (s *fileStorage) Create(name string) (File, error) {
	if err := ValidateFileName(name); err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(s.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary export file: %w", err)
	}
	return &tempFile{fs: s.fs, file: tmp, target: filepath.Join(s.dir, name)}, nil
}

type tempFile struct {
	fs     afero.Fs
	file   afero.File
	target string
	done   bool
}

func (f *tempFile) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

func (f *tempFile) Commit() (string, error) {
	if f.done {
		return "", fmt.Errorf("export file %s already closed", f.target)
	}
	f.done = true

	if err := f.file.Sync(); err != nil {
		_ = f.discard()
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}
	if err := f.file.Close(); err != nil {
		_ = f.fs.Remove(f.file.Name())
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	if err := f.fs.Rename(f.file.Name(), f.target); err != nil {
		_ = f.fs.Remove(f.file.Name())
		return "", fmt.Errorf("failed to rename export file: %w", err)
	}
	return f.target, nil
}

func (f *tempFile) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	return f.discard()
}

func (f *tempFile) discard() error {
	_ = f.file.Close()
	if err := f.fs.Remove(f.file.Name()); err != nil {
		return fmt.Errorf("failed to remove temporary export file: %w", err)
	}
	return nil
}
