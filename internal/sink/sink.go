// Package sink persists finished exports to their final destination.
// It defines the Sink interface (port) and implementations for a local
// library directory and S3.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Sink persists a finished container file and returns where it now lives.
type Sink interface {
	// Persist copies the file at path to the destination and returns its
	// location (a path or URL). Failures are *PersistError.
	Persist(ctx context.Context, path string) (location string, err error)
}

// Kind classifies a persistence failure.
type Kind string

const (
	// KindIO covers read, write and network failures.
	KindIO Kind = "IO"
	// KindPermissionDenied means the destination refused the write.
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindUnknown is everything else.
	KindUnknown Kind = "UNKNOWN"
)

// Static errors for sink operations.
var (
	// ErrEmptyFile is returned when the file to persist has no content.
	ErrEmptyFile = errors.New("sink: file is empty")
	// ErrNotRegularFile is returned when the path is a directory or device.
	ErrNotRegularFile = errors.New("sink: not a regular file")
)

// PersistError reports a failed write to the destination.
type PersistError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *PersistError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("sink: persist failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("sink: persist failed (%s): %s: %v", e.Kind, e.Detail, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// newPersistError wraps err, classifying filesystem permission errors.
func newPersistError(detail string, err error) *PersistError {
	kind := KindIO
	if errors.Is(err, fs.ErrPermission) {
		kind = KindPermissionDenied
	}
	return &PersistError{Kind: kind, Detail: detail, Err: err}
}

// checkFile ensures path is a non-empty regular file and returns its size.
func checkFile(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, newPersistError("stat export", err)
	}
	if !info.Mode().IsRegular() {
		return 0, &PersistError{Kind: KindIO, Detail: path, Err: ErrNotRegularFile}
	}
	if info.Size() == 0 {
		return 0, &PersistError{Kind: KindIO, Detail: path, Err: ErrEmptyFile}
	}
	return info.Size(), nil
}
