// Package encoder renders composition instructions into a finished container
// file with ffmpeg.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/maauso/clipmerge/internal/composition"
	"github.com/maauso/clipmerge/internal/media"
)

// Static errors for encode requests.
var (
	// ErrNoInstructions is returned when a request carries no layers.
	ErrNoInstructions = errors.New("encoder: no instructions to render")
	// ErrOutputPathRequired is returned when a request has no destination.
	ErrOutputPathRequired = errors.New("encoder: output path is required")
	// ErrInvalidRenderSize is returned when the render size is not positive.
	ErrInvalidRenderSize = errors.New("encoder: render size must be positive")
)

// Request is everything one encode needs.
type Request struct {
	Instructions *composition.Instructions
	OutputPath   string
	Settings     Settings
}

// Encoder runs an encode asynchronously. Start returns immediately; done is
// called from another goroutine once the output has been fully written or
// abandoned. A nil error means OutputPath holds the finished file.
type Encoder interface {
	Start(ctx context.Context, req Request, done func(error))
}

// Compile-time check that FFmpegEncoder implements Encoder.
var _ Encoder = (*FFmpegEncoder)(nil)

// FFmpegEncoder implements Encoder using the ffmpeg CLI.
type FFmpegEncoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	logger     *slog.Logger
}

// NewFFmpegEncoder creates a new FFmpegEncoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegEncoder(ffmpegPath string, logger *slog.Logger) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegEncoder{ffmpegPath: ffmpegPath, logger: logger}
}

// Start runs Encode on a new goroutine and reports its result through done.
func (e *FFmpegEncoder) Start(ctx context.Context, req Request, done func(error)) {
	go func() {
		done(e.Encode(ctx, req))
	}()
}

// Encode renders req synchronously. On failure any partially written output
// is removed.
func (e *FFmpegEncoder) Encode(ctx context.Context, req Request) error {
	args, err := BuildArgs(req)
	if err != nil {
		return err
	}

	e.logger.Debug("running ffmpeg",
		slog.String("output", req.OutputPath),
		slog.Int("layers", len(req.Instructions.Layers)),
		slog.String("args", strings.Join(args, " ")),
	)

	if err := e.runFFmpeg(ctx, args); err != nil {
		if rmErr := os.Remove(req.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn("failed to remove partial output",
				slog.String("output", req.OutputPath),
				slog.String("error", rmErr.Error()),
			)
		}
		return err
	}
	return nil
}

// BuildArgs compiles the instructions into ffmpeg arguments.
//
// A black canvas of the render size spans the master time range. Each layer
// is shifted to its timeline start and overlaid at the origin at its natural
// size. A layer with a fade point is only enabled until Start+FadeAt; the
// last layer stays enabled to the end.
func BuildArgs(req Request) ([]string, error) {
	in := req.Instructions
	if in == nil || len(in.Layers) == 0 {
		return nil, ErrNoInstructions
	}
	if req.OutputPath == "" {
		return nil, ErrOutputPathRequired
	}
	if !in.RenderSize.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRenderSize, in.RenderSize)
	}

	kw, err := req.Settings.outputArgs()
	if err != nil {
		return nil, err
	}

	frameDuration := in.FrameDuration
	if !frameDuration.IsPositive() {
		frameDuration = composition.DefaultFrameDuration
	}
	rate := frameDuration.Inverse().String()
	total := in.TimeRange.Duration.FormatSeconds()

	canvas := ffmpeg.Input(
		fmt.Sprintf("color=c=black:s=%dx%d:r=%s:d=%s", in.RenderSize.Width, in.RenderSize.Height, rate, total),
		ffmpeg.KwArgs{"f": "lavfi"},
	)

	out := canvas
	for _, layer := range in.Layers {
		start := layer.Start.FormatSeconds()

		clip := ffmpeg.Input(layer.Path).
			Video().
			Filter("setpts", ffmpeg.Args{fmt.Sprintf("PTS-STARTPTS+%s/TB", start)})

		enable := fmt.Sprintf("gte(t,%s)", start)
		if layer.HasFade() {
			enable = fmt.Sprintf("between(t,%s,%s)", start, in.VisibleUntil(layer).FormatSeconds())
		}

		out = ffmpeg.Filter([]*ffmpeg.Stream{out, clip}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x":          0,
			"y":          0,
			"eof_action": "pass",
			"enable":     enable,
		})
	}

	kw["r"] = rate
	kw["t"] = total

	return out.Output(req.OutputPath, kw).OverWriteOutput().GetArgs(), nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (e *FFmpegEncoder) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &media.FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}
