// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/clipmerge/internal/encoder"
	"github.com/maauso/clipmerge/internal/media"
	"github.com/maauso/clipmerge/internal/sink"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`

	// Output settings
	OutputDir  string `env:"OUTPUT_DIR, default=/tmp/clipmerge" json:"output_dir" validate:"required"`
	LibraryDir string `env:"LIBRARY_DIR, default=/tmp/clipmerge/library" json:"library_dir"`

	// Export settings
	OutputFormat       string `env:"OUTPUT_FORMAT, default=mov" json:"output_format" validate:"oneof=mov mp4"`
	Quality            string `env:"QUALITY, default=highest" json:"quality" validate:"oneof=highest medium low"`
	OptimizeForNetwork bool   `env:"OPTIMIZE_FOR_NETWORK, default=true" json:"optimize_for_network"`
	FrameRate          int64  `env:"FRAME_RATE, default=30" json:"frame_rate" validate:"min=1,max=240"`

	// Processing settings
	ThumbnailWidth     int `env:"THUMBNAIL_WIDTH, default=320" json:"thumbnail_width" validate:"min=16,max=3840"`
	ResolveConcurrency int `env:"RESOLVE_CONCURRENCY, default=4" json:"resolve_concurrency" validate:"min=1,max=64"`

	// Binaries, found via PATH when empty
	FFmpegPath  string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty" validate:"required_with=S3Bucket"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and preset names.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// EncoderSettings returns the export container and quality settings.
func (c *Config) EncoderSettings() encoder.Settings {
	return encoder.Settings{
		Format:             c.OutputFormat,
		Quality:            c.Quality,
		OptimizeForNetwork: c.OptimizeForNetwork,
	}
}

// FrameDuration returns the composition frame duration, 1/FrameRate.
func (c *Config) FrameDuration() media.Time {
	return media.NewTime(1, c.FrameRate)
}

// S3Config returns the S3 sink configuration.
func (c *Config) S3Config() sink.S3Config {
	return sink.S3Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		Endpoint:        c.S3Endpoint,
		Prefix:          c.S3Prefix,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}
	if strings.ToLower(c.LogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, OutputDir: %s, LibraryDir: %s, OutputFormat: %s, Quality: %s, FrameRate: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.OutputDir,
		c.LibraryDir,
		c.OutputFormat,
		c.Quality,
		c.FrameRate,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
