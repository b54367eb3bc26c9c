// Package job provides the export job aggregate and the driver that runs a
// merge from a source snapshot to a persisted container file.
package job

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/clipmerge/internal/job/id"
)

// Status represents the current state of an export job.
type Status string

const (
	// StatusBuilding indicates the timeline and instructions are being built.
	StatusBuilding Status = "BUILDING"
	// StatusEncoding indicates the encoder is writing the output file.
	StatusEncoding Status = "ENCODING"
	// StatusPersisting indicates the finished file is being handed to the sink.
	StatusPersisting Status = "PERSISTING"
	// StatusDone indicates the export finished successfully.
	StatusDone Status = "DONE"
	// StatusFailed indicates the export stopped with an error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusBuilding:   {StatusEncoding, StatusFailed},
	StatusEncoding:   {StatusPersisting, StatusDone, StatusFailed},
	StatusPersisting: {StatusDone, StatusFailed},
	StatusDone:       {},
	StatusFailed:     {},
}

func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Job is one export: the sources it was built from and where it got to.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Sources are the source paths in merge order, captured at build time.
	Sources []string
	// OutputPath is the container file written by the encoder.
	OutputPath string
	// Location is where the sink stored the file (path or URL).
	Location string
	// Error contains the error message if the job failed.
	Error string
	// ErrorCode is the stable code for Error, see ErrorCode.
	ErrorCode string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when encoding started.
	StartedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job in BUILDING status with a generated ID.
func New(sources []string) *Job {
	return NewWithID(id.Generate(), sources)
}

// NewWithID creates a new Job in BUILDING status with the given ID.
func NewWithID(jobID string, sources []string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusBuilding,
		Sources:   slices.Clone(sources),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusEncoding:
		j.StartedAt = j.UpdatedAt
	case StatusDone, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// StartEncoding moves the job from BUILDING to ENCODING and records the
// output path.
func (j *Job) StartEncoding(outputPath string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusEncoding); err != nil {
		return err
	}
	j.OutputPath = outputPath
	return nil
}

// StartPersisting moves the job from ENCODING to PERSISTING.
func (j *Job) StartPersisting() error {
	return j.TransitionTo(StatusPersisting)
}

// Complete moves the job to DONE with the location of the persisted file.
// location is empty when no sink is configured.
func (j *Job) Complete(location string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusDone); err != nil {
		return err
	}
	j.Location = location
	return nil
}

// Fail moves the job to FAILED and records err with its code.
// A job that is already terminal is left untouched.
func (j *Job) Fail(err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if tErr := j.transitionLocked(StatusFailed); tErr != nil {
		return tErr
	}
	if err != nil {
		j.Error = err.Error()
		j.ErrorCode = ErrorCode(err)
	}
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is DONE or FAILED.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusDone || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Sources:     slices.Clone(j.Sources),
		OutputPath:  j.OutputPath,
		Location:    j.Location,
		Error:       j.Error,
		ErrorCode:   j.ErrorCode,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
