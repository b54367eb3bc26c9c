// Package bootstrap wires configuration into the adapters and the export
// driver shared by the HTTP server and the CLI.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/clipmerge/internal/config"
	"github.com/maauso/clipmerge/internal/encoder"
	"github.com/maauso/clipmerge/internal/job"
	"github.com/maauso/clipmerge/internal/media"
	"github.com/maauso/clipmerge/internal/registry"
	"github.com/maauso/clipmerge/internal/sink"
)

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Registry *registry.Registry
	Decoder  media.Decoder
	Driver   *job.Driver
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out, err := initSink(cfg, logger)
	if err != nil {
		return nil, err
	}

	decoder := media.NewFFmpegDecoder(cfg.FFmpegPath, cfg.FFprobePath)
	enc := encoder.NewFFmpegEncoder(cfg.FFmpegPath, logger)

	driver := job.NewDriver(
		job.NewMemoryRepository(),
		enc,
		cfg.OutputDir,
		logger,
		job.WithSink(out),
		job.WithSettings(cfg.EncoderSettings()),
		job.WithResolveConcurrency(cfg.ResolveConcurrency),
		job.WithFrameDuration(cfg.FrameDuration()),
	)

	return &Dependencies{
		Registry: registry.New(),
		Decoder:  decoder,
		Driver:   driver,
	}, nil
}

// NewSource returns a lazily probed source for path.
func (d *Dependencies) NewSource(path string) media.Source {
	return media.NewFile(path, d.Decoder)
}

// initSink creates the S3 sink when configured, the local library otherwise.
func initSink(cfg *config.Config, logger *slog.Logger) (sink.Sink, error) {
	if cfg.S3Enabled() {
		s3Sink, err := sink.NewS3Sink(cfg.S3Config())
		if err != nil {
			return nil, fmt.Errorf("create S3 sink: %w", err)
		}
		logger.Info("S3 sink configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Sink, nil
	}

	local, err := sink.NewLocalSink(cfg.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("create local sink: %w", err)
	}
	logger.Info("local sink configured",
		slog.String("library_dir", local.LibraryDir()),
	)
	return local, nil
}
