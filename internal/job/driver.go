package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/maauso/clipmerge/internal/composition"
	"github.com/maauso/clipmerge/internal/encoder"
	"github.com/maauso/clipmerge/internal/media"
	"github.com/maauso/clipmerge/internal/sink"
)

// TimestampLayout is the time layout used in output file names.
const TimestampLayout = "January 2, 2006 at 3.04.05 PM"

// OutputName returns the export file name for t, e.g.
// "mergeVideo-October 19, 2026 at 3.04.05 PM.mov". ext includes the dot.
func OutputName(t time.Time, ext string) string {
	return "mergeVideo-" + t.Format(TimestampLayout) + ext
}

// Outcome is the terminal result of one export.
type Outcome struct {
	JobID      string
	Status     Status
	OutputPath string
	Location   string
	Err        error
}

// Handle tracks one export started by Driver.Export.
type Handle struct {
	jobID   string
	done    chan struct{}
	outcome Outcome
}

func newHandle(jobID string) *Handle {
	return &Handle{jobID: jobID, done: make(chan struct{})}
}

// JobID returns the ID of the export job.
func (h *Handle) JobID() string {
	return h.jobID
}

// Done returns a channel that is closed once the job has reached a terminal
// state and that state has been saved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the result and true once Done is closed, or false before.
func (h *Handle) Outcome() (Outcome, bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the export finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// resolve must be called exactly once.
func (h *Handle) resolve(o Outcome) {
	h.outcome = o
	close(h.done)
}

// Option configures a Driver.
type Option func(*Driver)

// WithSink sets where finished exports are persisted. Without a sink a job
// is DONE as soon as the encoder succeeds.
func WithSink(s sink.Sink) Option {
	return func(d *Driver) {
		d.sink = s
	}
}

// WithSettings sets the container and quality of exports.
func WithSettings(s encoder.Settings) Option {
	return func(d *Driver) {
		d.settings = s
	}
}

// WithClock overrides the clock used to name output files.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// WithResolveConcurrency bounds how many sources are probed at once.
func WithResolveConcurrency(n int) Option {
	return func(d *Driver) {
		d.buildOpts = append(d.buildOpts, composition.WithResolveConcurrency(n))
	}
}

// WithFrameDuration sets the frame duration of the composition.
func WithFrameDuration(fd media.Time) Option {
	return func(d *Driver) {
		d.compileOpts = append(d.compileOpts, composition.WithFrameDuration(fd))
	}
}

// ExportOption configures a single export.
type ExportOption func(*exportOptions)

type exportOptions struct {
	onComplete func(Outcome)
}

// WithCompletion registers fn to run once with the outcome, after the
// handle's Done channel is closed. fn runs on the encoder's goroutine.
func WithCompletion(fn func(Outcome)) ExportOption {
	return func(o *exportOptions) {
		o.onComplete = fn
	}
}

// Driver runs exports: it builds the timeline, compiles the instructions,
// hands them to the encoder and persists the result. At most one export is
// in flight per Driver.
type Driver struct {
	repo        Repository
	encoder     encoder.Encoder
	sink        sink.Sink
	outputDir   string
	settings    encoder.Settings
	now         func() time.Time
	buildOpts   []composition.BuildOption
	compileOpts []composition.CompileOption
	logger      *slog.Logger

	mu     sync.Mutex
	active string
}

// NewDriver creates a new Driver writing exports into outputDir.
func NewDriver(repo Repository, enc encoder.Encoder, outputDir string, logger *slog.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		repo:      repo,
		encoder:   enc,
		outputDir: outputDir,
		settings:  encoder.DefaultSettings(),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Export merges sources, in order, into one output file.
//
// Building and compiling run on the caller's goroutine; their errors
// (composition.ErrEmptyInput, *composition.SourceReadError) are returned
// directly. ErrBusy is returned while another export is in flight. Once
// encoding has started the returned Handle reports the outcome: DONE, or
// FAILED with an *EncodeError or *sink.PersistError.
func (d *Driver) Export(ctx context.Context, sources []media.Source, opts ...ExportOption) (*Handle, error) {
	if len(sources) == 0 {
		return nil, composition.ErrEmptyInput
	}

	var eo exportOptions
	for _, opt := range opts {
		opt(&eo)
	}

	snapshot := slices.Clone(sources)
	j := New(sourcePaths(snapshot))
	if err := d.acquire(j.ID); err != nil {
		return nil, err
	}

	log := d.logger.With(slog.String("job_id", j.ID))
	log.Info("export started", slog.Int("sources", len(snapshot)))

	if err := d.repo.Save(ctx, j); err != nil {
		d.release(j.ID)
		return nil, fmt.Errorf("save job: %w", err)
	}

	req, err := d.prepare(ctx, snapshot)
	if err != nil {
		d.failEarly(ctx, j, err)
		return nil, err
	}

	if err := j.StartEncoding(req.OutputPath); err != nil {
		d.failEarly(ctx, j, err)
		return nil, err
	}
	if err := d.repo.Save(ctx, j); err != nil {
		d.failEarly(ctx, j, err)
		return nil, fmt.Errorf("save job: %w", err)
	}

	log.Info("encoding",
		slog.String("output", req.OutputPath),
		slog.String("render_size", req.Instructions.RenderSize.String()),
		slog.Float64("duration_seconds", req.Instructions.TimeRange.Duration.Seconds()),
		slog.Int("fades", req.Instructions.FadeCount()),
	)

	h := newHandle(j.ID)
	var once sync.Once
	done := func(encErr error) {
		first := false
		once.Do(func() {
			first = true
			d.finish(ctx, j, h, encErr, eo.onComplete)
		})
		if !first {
			log.Warn("ignoring duplicate completion signal")
		}
	}
	d.encoder.Start(ctx, *req, done)

	return h, nil
}

// prepare builds and compiles the composition and picks the output path.
func (d *Driver) prepare(ctx context.Context, sources []media.Source) (*encoder.Request, error) {
	tl, err := composition.Build(ctx, sources, d.buildOpts...)
	if err != nil {
		return nil, err
	}
	instructions, err := composition.Compile(tl, d.compileOpts...)
	if err != nil {
		return nil, err
	}
	if err := d.settings.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &encoder.Request{
		Instructions: instructions,
		OutputPath:   filepath.Join(d.outputDir, OutputName(d.now(), d.settings.Extension())),
		Settings:     d.settings,
	}, nil
}

// finish runs once per export, on the encoder's goroutine.
func (d *Driver) finish(ctx context.Context, j *Job, h *Handle, encErr error, onComplete func(Outcome)) {
	log := d.logger.With(slog.String("job_id", j.ID))
	saveCtx := context.WithoutCancel(ctx)

	var err error
	switch {
	case encErr != nil:
		err = &EncodeError{Err: encErr}
	case d.sink == nil:
		if cErr := j.Complete(""); cErr != nil {
			err = cErr
		}
	default:
		err = d.persist(ctx, saveCtx, j)
	}

	if err != nil {
		if fErr := j.Fail(err); fErr != nil {
			log.Error("failed to mark job failed", slog.String("error", fErr.Error()))
		}
		log.Error("export failed",
			slog.String("error", err.Error()),
			slog.String("code", ErrorCode(err)),
		)
	} else {
		log.Info("export finished",
			slog.String("status", string(j.GetStatus())),
			slog.String("location", j.Clone().Location),
		)
	}

	if sErr := d.repo.Save(saveCtx, j); sErr != nil {
		log.Error("failed to save job", slog.String("error", sErr.Error()))
	}

	snap := j.Clone()
	out := Outcome{
		JobID:      snap.ID,
		Status:     snap.Status,
		OutputPath: snap.OutputPath,
		Location:   snap.Location,
		Err:        err,
	}

	d.release(j.ID)
	h.resolve(out)
	if onComplete != nil {
		onComplete(out)
	}
}

func (d *Driver) persist(ctx, saveCtx context.Context, j *Job) error {
	if err := j.StartPersisting(); err != nil {
		return err
	}
	if err := d.repo.Save(saveCtx, j); err != nil {
		d.logger.Warn("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}

	location, err := d.sink.Persist(ctx, j.Clone().OutputPath)
	if err != nil {
		var pe *sink.PersistError
		if !errors.As(err, &pe) {
			err = &sink.PersistError{Kind: sink.KindUnknown, Err: err}
		}
		return err
	}
	return j.Complete(location)
}

// failEarly records a failure that happened before encoding started and
// frees the driver.
func (d *Driver) failEarly(ctx context.Context, j *Job, err error) {
	log := d.logger.With(slog.String("job_id", j.ID))
	if fErr := j.Fail(err); fErr != nil {
		log.Error("failed to mark job failed", slog.String("error", fErr.Error()))
	}
	if sErr := d.repo.Save(context.WithoutCancel(ctx), j); sErr != nil {
		log.Error("failed to save job", slog.String("error", sErr.Error()))
	}
	log.Warn("export rejected",
		slog.String("error", err.Error()),
		slog.String("code", ErrorCode(err)),
	)
	d.release(j.ID)
}

func (d *Driver) acquire(jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != "" {
		return ErrBusy
	}
	d.active = jobID
	return nil
}

func (d *Driver) release(jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == jobID {
		d.active = ""
	}
}

// Active returns the ID of the export in flight, if any.
func (d *Driver) Active() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active, d.active != ""
}

// Job returns a snapshot of the job with the given ID.
func (d *Driver) Job(ctx context.Context, jobID string) (*Job, error) {
	return d.repo.FindByID(ctx, jobID)
}

// Jobs returns all jobs, oldest first.
func (d *Driver) Jobs(ctx context.Context) ([]*Job, error) {
	return d.repo.List(ctx)
}

func sourcePaths(sources []media.Source) []string {
	paths := make([]string, len(sources))
	for i, src := range sources {
		if src != nil {
			paths[i] = src.Path()
		}
	}
	return paths
}
