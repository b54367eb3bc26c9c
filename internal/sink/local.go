package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Compile-time check that LocalSink implements Sink.
var _ Sink = (*LocalSink)(nil)

// LocalSink copies finished exports into a library directory on disk.
type LocalSink struct {
	libraryDir string
}

// NewLocalSink creates a new LocalSink.
// If libraryDir is empty, a "clipmerge-library" directory under os.TempDir()
// is used. The directory is created if it doesn't exist.
func NewLocalSink(libraryDir string) (*LocalSink, error) {
	if libraryDir == "" {
		libraryDir = filepath.Join(os.TempDir(), "clipmerge-library")
	}
	if err := os.MkdirAll(libraryDir, 0750); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}
	return &LocalSink{libraryDir: libraryDir}, nil
}

// LibraryDir returns the library directory path.
func (s *LocalSink) LibraryDir() string {
	return s.libraryDir
}

// Persist copies the file into the library directory under its base name.
// The copy is written to a temporary file first and renamed into place, so
// the library never holds a partial export.
func (s *LocalSink) Persist(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", &PersistError{Kind: KindUnknown, Detail: "context cancelled", Err: ctx.Err()}
	default:
	}

	if _, err := checkFile(path); err != nil {
		return "", err
	}

	dst := filepath.Join(s.libraryDir, filepath.Base(path))
	if err := s.copyFile(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *LocalSink) copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - src is an export written by this process
	if err != nil {
		return newPersistError("open export", err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(s.libraryDir, ".persist_*")
	if err != nil {
		return newPersistError("create library file", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return newPersistError("write library file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return newPersistError("close library file", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return newPersistError("move into library", err)
	}
	return nil
}
