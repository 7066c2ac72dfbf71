package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage is the local file area that backs uploaded post images.
// Paths are client-style ("/temp/x.png") and always resolve inside the root.
type Storage interface {
	RootAbs() string
	Resolve(clientPath string) (string, error)
	MkdirAll(clientPath string, perm fs.FileMode) error
	Stat(clientPath string) (fs.FileInfo, error)
	Rename(oldPath string, newPath string) error
	OpenForRead(clientPath string) (*os.File, error)
	OpenForWrite(clientPath string) (*os.File, error)
	Remove(clientPath string) error
}

type Local struct {
	root Root
}

func New(root string) (*Local, error) {
	r, err := NewRoot(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.Abs(), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Local{root: r}, nil
}

func (s *Local) RootAbs() string {
	return s.root.Abs()
}

func (s *Local) Resolve(clientPath string) (string, error) {
	return s.root.Join(clientPath)
}

func (s *Local) MkdirAll(clientPath string, perm fs.FileMode) error {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, perm); err != nil {
		return fmt.Errorf("mkdir %q: %w", clientPath, err)
	}

	return nil
}

func (s *Local) Stat(clientPath string) (fs.FileInfo, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Stat(resolved)
}

func (s *Local) Rename(oldPath string, newPath string) error {
	oldResolved, err := s.Resolve(oldPath)
	if err != nil {
		return err
	}

	newResolved, err := s.Resolve(newPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(newResolved), 0o755); err != nil {
		return fmt.Errorf("prepare destination %q: %w", newPath, err)
	}

	if err := os.Rename(oldResolved, newResolved); err != nil {
		return fmt.Errorf("rename %q to %q: %w", oldPath, newPath, err)
	}

	return nil
}

func (s *Local) OpenForRead(clientPath string) (*os.File, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Open(resolved)
}

// OpenForWrite creates or truncates the file, creating parent directories.
func (s *Local) OpenForWrite(clientPath string) (*os.File, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}

	return os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func (s *Local) Remove(clientPath string) error {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return err
	}

	if resolved == s.RootAbs() {
		return fmt.Errorf("refusing to remove storage root")
	}

	if err := os.Remove(resolved); err != nil {
		return fmt.Errorf("remove %q: %w", clientPath, err)
	}

	return nil
}
