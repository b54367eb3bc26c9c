// Package main provides the clipmerge command-line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maauso/clipmerge/internal/bootstrap"
	"github.com/maauso/clipmerge/internal/config"
	"github.com/maauso/clipmerge/internal/job"
	"github.com/maauso/clipmerge/internal/media"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipmerge",
		Short: "Merge video clips into a single export",
		Long: `clipmerge concatenates video clips in the order given and writes one
container file, then copies it into the library (or uploads it to S3 when
S3_BUCKET and S3_REGION are set).

Defaults come from the same environment variables as the server.

Examples:
  # Merge three clips into a QuickTime file
  clipmerge merge a.mov b.mov c.mov

  # Write an MP4 at medium quality into ./out
  clipmerge merge --format mp4 --quality medium --out-dir ./out a.mov b.mov

  # Print duration and size of each clip
  clipmerge probe a.mov b.mov`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMergeCmd(), newProbeCmd())
	return root
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [files...]",
		Short: "Merge clips, in order, into one file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMerge(ctx, cfg, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("out-dir", "o", "", "Directory for the merged file (OUTPUT_DIR)")
	cmd.Flags().String("library-dir", "", "Library directory the export is copied into (LIBRARY_DIR)")
	cmd.Flags().StringP("format", "f", "", "Container format: mov or mp4 (OUTPUT_FORMAT)")
	cmd.Flags().StringP("quality", "q", "", "Quality preset: highest, medium or low (QUALITY)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	return cmd
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe [files...]",
		Short: "Print the duration and size of each clip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			decoder := media.NewFFmpegDecoder(cfg.FFmpegPath, cfg.FFprobePath)
			return runProbe(cmd.Context(), decoder, args, cmd.OutOrStdout())
		},
	}
}

// loadConfig reads the environment and applies the merge flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	overrides := []struct {
		name string
		dst  *string
	}{
		{"out-dir", &cfg.OutputDir},
		{"library-dir", &cfg.LibraryDir},
		{"format", &cfg.OutputFormat},
		{"quality", &cfg.Quality},
	}
	for _, o := range overrides {
		if !flags.Changed(o.name) {
			continue
		}
		v, err := flags.GetString(o.name)
		if err != nil {
			return err
		}
		*o.dst = v
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	return nil
}

func runMerge(ctx context.Context, cfg *config.Config, paths []string, out io.Writer) error {
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	for _, p := range paths {
		if err := deps.Registry.Append(deps.NewSource(p)); err != nil {
			return err
		}
	}

	handle, err := deps.Driver.Export(ctx, deps.Registry.Snapshot())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	// Cancelling ctx stops the encoder, which still reports through the handle.
	<-handle.Done()
	outcome, _ := handle.Outcome()
	if outcome.Err != nil {
		return fmt.Errorf("export %s: %w", outcome.JobID, outcome.Err)
	}

	_, _ = fmt.Fprintf(out, "merged %d clips into %s\n", len(paths), outcome.OutputPath)
	if outcome.Location != "" {
		_, _ = fmt.Fprintf(out, "saved to %s\n", outcome.Location)
	}
	return nil
}

func runProbe(ctx context.Context, decoder media.Decoder, paths []string, out io.Writer) error {
	total := media.Zero
	for _, p := range paths {
		info, err := media.NewFile(p, decoder).Info(ctx)
		if err != nil {
			return fmt.Errorf("probe %s: %w", p, err)
		}
		total = total.Add(info.Duration)
		_, _ = fmt.Fprintf(out, "%s\t%ss\t%s\t%s\n", p, info.Duration.FormatSeconds(), info.NaturalSize, info.Codec)
	}
	_, _ = fmt.Fprintf(out, "total\t%ss\n", total.FormatSeconds())
	return nil
}

// exitCode maps export errors to process exit codes.
func exitCode(err error) int {
	switch job.ErrorCode(err) {
	case job.CodeEmptyInput, job.CodeSourceReadFailed:
		return 2
	default:
		return 1
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
