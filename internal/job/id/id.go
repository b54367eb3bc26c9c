// Package id provides unique identifier generation for export jobs.
package id

import (
	"github.com/google/uuid"
)

// Generate creates a new unique export job ID, a random (version 4) UUID.
func Generate() string {
	return uuid.New().String()
}
