// Package composition turns an ordered list of clips into a single timeline
// and the per-clip opacity instructions the encoder renders from.
package composition

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/clipmerge/internal/media"
)

// ErrEmptyInput is returned when there are no sources to merge.
var ErrEmptyInput = errors.New("composition: no sources to merge")

// SourceReadError reports a source whose duration or size could not be
// resolved. It aborts the whole build.
type SourceReadError struct {
	Index int
	Path  string
	Err   error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("composition: read source %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// Segment is one clip placed on the timeline.
type Segment struct {
	Index  int
	Source media.Source
	Info   media.Info
	// Start and End are absolute timeline offsets.
	Start media.Time
	End   media.Time
}

// Duration returns the time the segment occupies on the timeline.
func (s Segment) Duration() media.Time {
	return s.End.Sub(s.Start)
}

// Timeline is the contiguous arrangement of all clips.
type Timeline struct {
	Segments      []Segment
	TotalDuration media.Time
	// RenderSize is the natural size of the last clip.
	RenderSize media.Size
}

const defaultResolveConcurrency = 4

type buildOptions struct {
	concurrency int
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithResolveConcurrency bounds how many sources are probed in parallel.
// Values below 1 are ignored.
func WithResolveConcurrency(n int) BuildOption {
	return func(o *buildOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Build lays sources end to end starting at zero. Every source is resolved
// before any offsets are computed, so a single unreadable source fails the
// build with a *SourceReadError and no timeline.
func Build(ctx context.Context, sources []media.Source, opts ...BuildOption) (*Timeline, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyInput
	}

	o := buildOptions{concurrency: defaultResolveConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	infos, err := resolve(ctx, sources, o.concurrency)
	if err != nil {
		return nil, err
	}

	tl := &Timeline{Segments: make([]Segment, 0, len(sources))}
	cursor := media.Zero
	for i, src := range sources {
		end := cursor.Add(infos[i].Duration)
		tl.Segments = append(tl.Segments, Segment{
			Index:  i,
			Source: src,
			Info:   infos[i],
			Start:  cursor,
			End:    end,
		})
		cursor = end
		tl.RenderSize = infos[i].NaturalSize
	}
	tl.TotalDuration = cursor

	return tl, nil
}

func resolve(ctx context.Context, sources []media.Source, limit int) ([]media.Info, error) {
	infos := make([]media.Info, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, src := range sources {
		g.Go(func() error {
			if src == nil {
				return &SourceReadError{Index: i, Err: media.ErrNilSource}
			}
			info, err := src.Info(gctx)
			if err == nil {
				err = info.Validate()
			}
			if err != nil {
				return &SourceReadError{Index: i, Path: src.Path(), Err: err}
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}
