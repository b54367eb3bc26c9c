package encoder

import (
	"errors"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Container formats.
const (
	FormatMOV = "mov"
	FormatMP4 = "mp4"
)

// Quality presets.
const (
	QualityHighest = "highest"
	QualityMedium  = "medium"
	QualityLow     = "low"
)

// Static errors for encoder configuration.
var (
	// ErrUnknownFormat is returned for a container format without a preset.
	ErrUnknownFormat = errors.New("encoder: unknown container format")
	// ErrUnknownQuality is returned for a quality name without a preset.
	ErrUnknownQuality = errors.New("encoder: unknown quality preset")
)

// Settings selects the container and quality of an export.
type Settings struct {
	Format             string
	Quality            string
	OptimizeForNetwork bool
}

// DefaultSettings is a QuickTime container at the highest quality,
// optimized for progressive playback.
func DefaultSettings() Settings {
	return Settings{
		Format:             FormatMOV,
		Quality:            QualityHighest,
		OptimizeForNetwork: true,
	}
}

// Validate checks that both presets exist.
func (s Settings) Validate() error {
	if _, ok := containers[s.Format]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, s.Format)
	}
	if _, ok := qualities[s.Quality]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuality, s.Quality)
	}
	return nil
}

// Extension returns the file extension for the container, including the dot.
func (s Settings) Extension() string {
	if c, ok := containers[s.Format]; ok {
		return c.FileExtension
	}
	return "." + s.Format
}

type containerSettings struct {
	VideoCodec    string
	Muxer         string
	FileExtension string
}

var containers = map[string]containerSettings{
	FormatMOV: {VideoCodec: "libx264", Muxer: "mov", FileExtension: ".mov"},
	FormatMP4: {VideoCodec: "libx264", Muxer: "mp4", FileExtension: ".mp4"},
}

var qualities = map[string]ffmpeg.KwArgs{
	QualityHighest: {
		"crf":       17,
		"preset":    "slow",
		"profile:v": "high",
	},
	QualityMedium: {
		"crf":    23,
		"preset": "medium",
	},
	QualityLow: {
		"crf":    28,
		"preset": "veryfast",
	},
}

// outputArgs merges the container, quality and network settings into
// ffmpeg output options.
func (s Settings) outputArgs() (ffmpeg.KwArgs, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	c := containers[s.Format]

	kw := ffmpeg.KwArgs{
		"c:v":     c.VideoCodec,
		"pix_fmt": "yuv420p",
		"f":       c.Muxer,
	}
	for k, v := range qualities[s.Quality] {
		kw[k] = v
	}
	if s.OptimizeForNetwork {
		kw["movflags"] = "+faststart"
	}
	return kw, nil
}
