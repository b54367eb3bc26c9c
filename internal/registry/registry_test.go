package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/clipmerge/internal/media"
)

type stubSource string

func (s stubSource) Path() string { return string(s) }

func (s stubSource) Info(context.Context) (media.Info, error) { return media.Info{}, nil }

func TestRegistry_Append(t *testing.T) {
	r := New()

	require.NoError(t, r.Append(stubSource("a.mov")))
	require.NoError(t, r.Append(stubSource("b.mov")))

	assert.Equal(t, 2, r.Count())
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a.mov", list[0].Path())
	assert.Equal(t, "b.mov", list[1].Path())
}

func TestRegistry_AppendNil(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Append(nil), media.ErrNilSource)
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_RemoveLast(t *testing.T) {
	t.Run("empty registry is a no-op", func(t *testing.T) {
		r := New()
		assert.False(t, r.RemoveLast())
		assert.Equal(t, 0, r.Count())
	})

	t.Run("removes the tail", func(t *testing.T) {
		r := New()
		for _, p := range []string{"a", "b", "c"} {
			require.NoError(t, r.Append(stubSource(p)))
		}

		assert.True(t, r.RemoveLast())
		assert.Equal(t, 2, r.Count())

		list := r.List()
		assert.Equal(t, "a", list[0].Path())
		assert.Equal(t, "b", list[1].Path())
	})

	t.Run("zero value registry", func(t *testing.T) {
		var r Registry
		assert.False(t, r.RemoveLast())
		require.NoError(t, r.Append(stubSource("a")))
		assert.True(t, r.RemoveLast())
		assert.Equal(t, 0, r.Count())
	})
}

func TestRegistry_SnapshotIsDetached(t *testing.T) {
	r := New()
	require.NoError(t, r.Append(stubSource("a")))
	require.NoError(t, r.Append(stubSource("b")))

	snapshot := r.Snapshot()
	r.RemoveLast()
	require.NoError(t, r.Append(stubSource("z")))

	assert.Equal(t, "b", snapshot[1].Path())
	assert.Equal(t, "z", r.List()[1].Path())
}

func TestRegistry_At(t *testing.T) {
	r := New()
	require.NoError(t, r.Append(stubSource("a")))

	src, ok := r.At(0)
	require.True(t, ok)
	assert.Equal(t, "a", src.Path())

	_, ok = r.At(1)
	assert.False(t, ok)
	_, ok = r.At(-1)
	assert.False(t, ok)
}
