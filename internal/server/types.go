// Package server provides the HTTP API for managing the source registry and
// running exports. It includes handlers, middleware, routes, and DTOs
// separated from domain types.
package server

import "time"

// AddSourceRequest is the HTTP request body for appending a source.
type AddSourceRequest struct {
	// Path is a video file readable by the server.
	Path string `json:"path" validate:"required,file"`
}

// SourceResponse describes one registered source.
type SourceResponse struct {
	// Index is the position in merge order.
	Index int `json:"index"`
	// Path is the file the source reads from.
	Path string `json:"path"`
}

// SourceListResponse is the HTTP response for listing sources.
type SourceListResponse struct {
	Sources []SourceResponse `json:"sources"`
	Count   int              `json:"count"`
}

// CreateExportResponse is the HTTP response after starting an export.
type CreateExportResponse struct {
	// ID is the unique identifier for the export job.
	ID string `json:"id"`
	// Status is the job status when the response was written.
	Status string `json:"status"`
}

// ExportResponse is the HTTP response for getting export details.
type ExportResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Finished    bool       `json:"finished"`
	Sources     []string   `json:"sources"`
	OutputPath  string     `json:"output_path,omitempty"`
	Location    string     `json:"location,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorCode   string     `json:"error_code,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExportListResponse is the HTTP response for listing exports.
type ExportListResponse struct {
	Exports []ExportResponse `json:"exports"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// ActiveExport is the ID of the export in flight, if any.
	ActiveExport string `json:"active_export,omitempty"`
}
