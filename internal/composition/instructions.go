package composition

import (
	"github.com/maauso/clipmerge/internal/media"
)

// DefaultFrameDuration is one frame at 30 fps.
var DefaultFrameDuration = media.NewTime(1, 30)

// TimeRange is a half-open range [Start, Start+Duration).
type TimeRange struct {
	Start    media.Time
	Duration media.Time
}

// End returns Start+Duration.
func (r TimeRange) End() media.Time {
	return r.Start.Add(r.Duration)
}

// LayerInstruction is the presentation rule for one clip. The clip is fully
// opaque from Start; when FadeAt is set its opacity drops to zero at that
// local time, otherwise it stays visible to the end of the master range.
type LayerInstruction struct {
	Index    int
	Path     string
	Start    media.Time
	Duration media.Time
	FadeAt   *media.Time
}

// HasFade reports whether the layer carries a fade point.
func (l LayerInstruction) HasFade() bool {
	return l.FadeAt != nil
}

// Instructions is the master instruction set for one export.
type Instructions struct {
	TimeRange     TimeRange
	Layers        []LayerInstruction
	RenderSize    media.Size
	FrameDuration media.Time
}

// VisibleUntil returns the absolute time at which layer l stops being shown.
func (in *Instructions) VisibleUntil(l LayerInstruction) media.Time {
	if l.FadeAt == nil {
		return in.TimeRange.End()
	}
	return l.Start.Add(*l.FadeAt)
}

// FadeCount returns how many layers carry a fade point.
func (in *Instructions) FadeCount() int {
	n := 0
	for _, l := range in.Layers {
		if l.HasFade() {
			n++
		}
	}
	return n
}

type compileOptions struct {
	frameDuration media.Time
}

// CompileOption configures Compile.
type CompileOption func(*compileOptions)

// WithFrameDuration overrides DefaultFrameDuration. Non-positive values are
// ignored.
func WithFrameDuration(d media.Time) CompileOption {
	return func(o *compileOptions) {
		if d.IsPositive() {
			o.frameDuration = d
		}
	}
}

// Compile emits one layer per segment. Every layer except the last fades at
// its own duration, so each clip is hidden exactly when the next begins.
// The cut is hard, not a dissolve.
func Compile(tl *Timeline, opts ...CompileOption) (*Instructions, error) {
	if tl == nil || len(tl.Segments) == 0 {
		return nil, ErrEmptyInput
	}

	o := compileOptions{frameDuration: DefaultFrameDuration}
	for _, opt := range opts {
		opt(&o)
	}

	last := len(tl.Segments) - 1
	layers := make([]LayerInstruction, 0, len(tl.Segments))
	for i, seg := range tl.Segments {
		layer := LayerInstruction{
			Index:    seg.Index,
			Start:    seg.Start,
			Duration: seg.Duration(),
		}
		if seg.Source != nil {
			layer.Path = seg.Source.Path()
		}
		if i != last {
			fade := seg.Duration()
			layer.FadeAt = &fade
		}
		layers = append(layers, layer)
	}

	return &Instructions{
		TimeRange:     TimeRange{Start: media.Zero, Duration: tl.TotalDuration},
		Layers:        layers,
		RenderSize:    tl.RenderSize,
		FrameDuration: o.frameDuration,
	}, nil
}
