package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/draw"
)

// Compile-time check that FFmpegDecoder implements Decoder.
var _ Decoder = (*FFmpegDecoder)(nil)

// FFmpegDecoder implements Decoder using the ffprobe and ffmpeg CLIs.
type FFmpegDecoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegDecoder creates a new FFmpegDecoder.
// Empty paths default to "ffmpeg" and "ffprobe" found via PATH.
func NewFFmpegDecoder(ffmpegPath, ffprobePath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegDecoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// Probe returns the duration and natural size of the first video stream.
// The stream duration is preferred; the container duration is the fallback.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (Info, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Info{}, fmt.Errorf("%w: ffprobe cancelled: %w", ErrDecode, ctx.Err())
		}
		return Info{}, fmt.Errorf("%w: ffprobe %s: %w, stderr: %s", ErrDecode, path, err, stderr.String())
	}

	return parseProbe(stdout.Bytes())
}

func parseProbe(data []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Info{}, fmt.Errorf("%w: parse ffprobe output: %w", ErrDecode, err)
	}

	var video *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return Info{}, fmt.Errorf("%w: %w", ErrDecode, ErrNoVideoStream)
	}

	raw := video.Duration
	if raw == "" || raw == "N/A" {
		raw = out.Format.Duration
	}
	duration, err := ParseSeconds(raw)
	if err != nil {
		return Info{}, fmt.Errorf("%w: duration: %w", ErrDecode, err)
	}

	return Info{
		Duration:    duration,
		NaturalSize: Size{Width: video.Width, Height: video.Height},
		Codec:       video.CodecName,
	}, nil
}

// Thumbnail grabs the first frame as PNG and scales it down to maxWidth.
func (d *FFmpegDecoder) Thumbnail(ctx context.Context, path string, maxWidth int) ([]byte, error) {
	args := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"frames:v": 1,
			"f":        "image2pipe",
			"vcodec":   "png",
		}).
		GetArgs()

	frame, err := d.runFFmpeg(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%w: thumbnail %s: %w", ErrDecode, path, err)
	}

	thumb, err := ScaleThumbnail(frame, maxWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: thumbnail %s: %w", ErrDecode, path, err)
	}
	return thumb, nil
}

// ScaleThumbnail decodes a PNG frame and re-encodes it no wider than
// maxWidth, keeping the aspect ratio. Frames already narrow enough are
// returned unchanged.
func ScaleThumbnail(frame []byte, maxWidth int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return frame, nil
	}

	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns stdout.
// The error carries stderr output if the command fails.
func (d *FFmpegDecoder) runFFmpeg(ctx context.Context, args []string) ([]byte, error) {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return nil, &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, strings.Join(e.Args, " "), e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
