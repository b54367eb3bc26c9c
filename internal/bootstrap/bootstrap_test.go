package bootstrap

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/clipmerge/internal/config"
	"github.com/maauso/clipmerge/internal/sink"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		OutputDir:          filepath.Join(dir, "out"),
		LibraryDir:         filepath.Join(dir, "library"),
		OutputFormat:       "mov",
		Quality:            "highest",
		FrameRate:          30,
		ThumbnailWidth:     320,
		ResolveConcurrency: 4,
	}
}

func TestNewDependencies_Local(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, err := NewDependencies(cfg, logger)
	require.NoError(t, err)

	assert.NotNil(t, deps.Registry)
	assert.NotNil(t, deps.Decoder)
	assert.NotNil(t, deps.Driver)
	assert.DirExists(t, cfg.LibraryDir)

	_, active := deps.Driver.Active()
	assert.False(t, active)

	src := deps.NewSource("/clips/a.mov")
	assert.Equal(t, "/clips/a.mov", src.Path())
}

func TestInitSink(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("local when S3 is not configured", func(t *testing.T) {
		s, err := initSink(testConfig(t), logger)
		require.NoError(t, err)
		assert.IsType(t, &sink.LocalSink{}, s)
	})

	t.Run("S3 when bucket and region are set", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.S3Bucket = "bucket"
		cfg.S3Region = "us-east-1"
		cfg.AWSAccessKeyID = "key"
		cfg.AWSSecretAccessKey = "secret"

		s, err := initSink(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &sink.S3Sink{}, s)
	})
}
