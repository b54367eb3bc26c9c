package composition

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/clipmerge/internal/media"
)

// fakeSource is a Source with a fixed resolution result.
type fakeSource struct {
	path  string
	info  media.Info
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Path() string { return f.path }

func (f *fakeSource) Info(context.Context) (media.Info, error) {
	f.calls.Add(1)
	return f.info, f.err
}

func clip(path string, seconds int64, w, h int) *fakeSource {
	return &fakeSource{
		path: path,
		info: media.Info{
			Duration:    media.TimeFromSeconds(seconds),
			NaturalSize: media.Size{Width: w, Height: h},
		},
	}
}

func sources(srcs ...*fakeSource) []media.Source {
	out := make([]media.Source, len(srcs))
	for i, s := range srcs {
		out[i] = s
	}
	return out
}

func TestBuild_EmptyInput(t *testing.T) {
	tl, err := Build(context.Background(), nil)
	assert.Nil(t, tl)
	assert.ErrorIs(t, err, ErrEmptyInput)

	tl, err = Build(context.Background(), []media.Source{})
	assert.Nil(t, tl)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuild_Offsets(t *testing.T) {
	tl, err := Build(context.Background(), sources(
		clip("a.mov", 2, 640, 480),
		clip("b.mov", 3, 640, 480),
		clip("c.mov", 5, 640, 480),
	))
	require.NoError(t, err)

	assert.Equal(t, media.TimeFromSeconds(10), tl.TotalDuration)
	require.Len(t, tl.Segments, 3)

	wantStarts := []int64{0, 2, 5}
	for i, seg := range tl.Segments {
		assert.Equal(t, i, seg.Index)
		assert.True(t, seg.Start.Equal(media.TimeFromSeconds(wantStarts[i])), "segment %d start = %s", i, seg.Start)
	}
}

func TestBuild_SegmentsAreContiguous(t *testing.T) {
	// Mixed timescales, as clips from different devices have.
	srcs := []*fakeSource{
		{path: "a", info: media.Info{Duration: media.NewTime(1001, 30000), NaturalSize: media.Size{Width: 1, Height: 1}}},
		{path: "b", info: media.Info{Duration: media.NewTime(7, 600), NaturalSize: media.Size{Width: 1, Height: 1}}},
		{path: "c", info: media.Info{Duration: media.NewTime(1, 3), NaturalSize: media.Size{Width: 1, Height: 1}}},
		{path: "d", info: media.Info{Duration: media.TimeFromSeconds(4), NaturalSize: media.Size{Width: 1, Height: 1}}},
	}

	tl, err := Build(context.Background(), sources(srcs...))
	require.NoError(t, err)

	assert.True(t, tl.Segments[0].Start.Equal(media.Zero))
	sum := media.Zero
	for i, seg := range tl.Segments {
		assert.True(t, seg.Start.Equal(sum), "segment %d start = %s, want %s", i, seg.Start, sum)
		sum = sum.Add(srcs[i].info.Duration)
		assert.True(t, seg.End.Equal(sum))
		assert.True(t, seg.Duration().Equal(srcs[i].info.Duration), "segment %d duration = %s", i, seg.Duration())
		if i+1 < len(tl.Segments) {
			assert.True(t, seg.End.Equal(tl.Segments[i+1].Start))
		}
	}
	assert.True(t, tl.Segments[len(tl.Segments)-1].End.Equal(tl.TotalDuration))
	assert.True(t, tl.TotalDuration.Equal(sum))
}

func TestBuild_RenderSizeIsLastClip(t *testing.T) {
	tests := []struct {
		name string
		srcs []*fakeSource
		want media.Size
	}{
		{
			name: "small then large",
			srcs: []*fakeSource{clip("a", 1, 640, 480), clip("b", 1, 1920, 1080)},
			want: media.Size{Width: 1920, Height: 1080},
		},
		{
			name: "large then small",
			srcs: []*fakeSource{clip("a", 1, 1920, 1080), clip("b", 1, 640, 480)},
			want: media.Size{Width: 640, Height: 480},
		},
		{
			name: "single clip",
			srcs: []*fakeSource{clip("a", 1, 720, 1280)},
			want: media.Size{Width: 720, Height: 1280},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, err := Build(context.Background(), sources(tt.srcs...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tl.RenderSize)
		})
	}
}

func TestBuild_SourceReadError(t *testing.T) {
	decodeErr := errors.New("moov atom not found")
	bad := &fakeSource{path: "broken.mov", err: decodeErr}

	tl, err := Build(context.Background(), sources(clip("a", 2, 64, 64), bad, clip("c", 2, 64, 64)),
		WithResolveConcurrency(1))
	assert.Nil(t, tl)

	var readErr *SourceReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, 1, readErr.Index)
	assert.Equal(t, "broken.mov", readErr.Path)
	assert.ErrorIs(t, err, decodeErr)
}

func TestBuild_InvalidInfoIsSourceReadError(t *testing.T) {
	tests := []struct {
		name string
		info media.Info
		want error
	}{
		{"zero duration", media.Info{Duration: media.Zero, NaturalSize: media.Size{Width: 1, Height: 1}}, media.ErrInvalidDuration},
		{"unresolved size", media.Info{Duration: media.TimeFromSeconds(1)}, media.ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), sources(&fakeSource{path: "x", info: tt.info}))

			var readErr *SourceReadError
			require.ErrorAs(t, err, &readErr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuild_NilSource(t *testing.T) {
	_, err := Build(context.Background(), []media.Source{nil})

	var readErr *SourceReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, media.ErrNilSource)
}

func TestBuild_ResolvesEachSourceOnce(t *testing.T) {
	srcs := []*fakeSource{clip("a", 1, 1, 1), clip("b", 1, 1, 1), clip("c", 1, 1, 1)}

	_, err := Build(context.Background(), sources(srcs...), WithResolveConcurrency(2))
	require.NoError(t, err)

	for _, s := range srcs {
		assert.Equal(t, int32(1), s.calls.Load())
	}
}
