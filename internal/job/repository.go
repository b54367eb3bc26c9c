package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository stores export jobs. It acts as a port in the hexagonal
// architecture pattern.
type Repository interface {
	// Save inserts or updates a job. Implementations store a copy.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all jobs in the order they were first saved.
	List(ctx context.Context) ([]*Job, error)
}
