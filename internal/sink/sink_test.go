package sink

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeExport writes a fake finished export into dir.
func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestNewPersistError_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"permission sentinel", fs.ErrPermission, KindPermissionDenied},
		{"EACCES path error", &os.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}, KindPermissionDenied},
		{"not exist", fs.ErrNotExist, KindIO},
		{"other", errors.New("disk full"), KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := newPersistError("op", tt.err)
			assert.Equal(t, tt.want, pe.Kind)
			assert.ErrorIs(t, pe, tt.err)
		})
	}
}

func TestPersistError_Error(t *testing.T) {
	withDetail := &PersistError{Kind: KindIO, Detail: "open export", Err: errors.New("boom")}
	assert.Equal(t, "sink: persist failed (IO): open export: boom", withDetail.Error())

	bare := &PersistError{Kind: KindUnknown, Err: errors.New("boom")}
	assert.Equal(t, "sink: persist failed (UNKNOWN): boom", bare.Error())
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("regular file", func(t *testing.T) {
		size, err := checkFile(writeExport(t, dir, "ok.mov", "data"))
		require.NoError(t, err)
		assert.Equal(t, int64(4), size)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := checkFile(filepath.Join(dir, "missing.mov"))
		var pe *PersistError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindIO, pe.Kind)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := checkFile(writeExport(t, dir, "empty.mov", ""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := checkFile(dir)
		assert.ErrorIs(t, err, ErrNotRegularFile)
	})
}
