package job

import (
	"errors"
	"fmt"

	"github.com/maauso/clipmerge/internal/composition"
	"github.com/maauso/clipmerge/internal/sink"
)

// ErrBusy is returned when an export is requested while another one is
// still in flight on the same driver.
var ErrBusy = errors.New("job: an export is already in progress")

// EncodeError wraps a failure reported by the encoder.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("job: encode failed: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Stable error codes stored on failed jobs and returned by the API.
const (
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeSourceReadFailed = "SOURCE_READ_FAILED"
	CodeEncodeFailed     = "ENCODE_FAILED"
	CodePersistFailed    = "PERSIST_FAILED"
	CodeBusy             = "EXPORT_BUSY"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorCode maps an export error to its stable code. It returns "" for nil.
func ErrorCode(err error) string {
	var (
		readErr    *composition.SourceReadError
		encodeErr  *EncodeError
		persistErr *sink.PersistError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, composition.ErrEmptyInput):
		return CodeEmptyInput
	case errors.Is(err, ErrBusy):
		return CodeBusy
	case errors.As(err, &readErr):
		return CodeSourceReadFailed
	case errors.As(err, &encodeErr):
		return CodeEncodeFailed
	case errors.As(err, &persistErr):
		return CodePersistFailed
	default:
		return CodeInternal
	}
}
