package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/clipmerge/internal/composition"
	"github.com/maauso/clipmerge/internal/job"
	"github.com/maauso/clipmerge/internal/media"
	"github.com/maauso/clipmerge/internal/registry"
)

// Error codes specific to the HTTP layer. Export failures use the job codes.
const (
	codeInvalidJSON     = "INVALID_JSON"
	codeValidation      = "VALIDATION_ERROR"
	codeInvalidIndex    = "INVALID_INDEX"
	codeSourceNotFound  = "SOURCE_NOT_FOUND"
	codeRegistryEmpty   = "REGISTRY_EMPTY"
	codeThumbnailFailed = "THUMBNAIL_FAILED"
	codeExportNotFound  = "EXPORT_NOT_FOUND"
	codeInternal        = job.CodeInternal
)

// defaultThumbnailWidth matches the THUMBNAIL_WIDTH default.
const defaultThumbnailWidth = 320

// Exporter starts exports and reads their jobs. *job.Driver implements it.
type Exporter interface {
	Export(ctx context.Context, sources []media.Source, opts ...job.ExportOption) (*job.Handle, error)
	Active() (string, bool)
	Job(ctx context.Context, id string) (*job.Job, error)
	Jobs(ctx context.Context) ([]*job.Job, error)
}

// Compile-time check that the driver satisfies Exporter.
var _ Exporter = (*job.Driver)(nil)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	registry       *registry.Registry
	exporter       Exporter
	decoder        media.Decoder
	validator      *validator.Validate
	logger         *slog.Logger
	thumbnailWidth int
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithThumbnailWidth sets the maximum thumbnail width in pixels.
func WithThumbnailWidth(width int) HandlerOption {
	return func(h *Handlers) {
		if width > 0 {
			h.thumbnailWidth = width
		}
	}
}

// NewHandlers creates a new Handlers instance. Sources added through the API
// are probed with decoder when an export is built.
func NewHandlers(reg *registry.Registry, exporter Exporter, decoder media.Decoder, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		registry:       reg,
		exporter:       exporter,
		decoder:        decoder,
		validator:      validator.New(),
		logger:         logger,
		thumbnailWidth: defaultThumbnailWidth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	active, _ := h.exporter.Active()
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", ActiveExport: active})
}

// ListSources handles GET /sources requests.
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	sources := h.registry.List()
	resp := SourceListResponse{
		Sources: make([]SourceResponse, len(sources)),
		Count:   len(sources),
	}
	for i, src := range sources {
		resp.Sources[i] = SourceResponse{Index: i, Path: src.Path()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddSource handles POST /sources requests.
func (h *Handlers) AddSource(w http.ResponseWriter, r *http.Request) {
	var req AddSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", codeInvalidJSON)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), codeValidation)
		return
	}

	if err := h.registry.Append(media.NewFile(req.Path, h.decoder)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), codeInternal)
		return
	}
	index := h.registry.Count() - 1

	h.logger.Info("source added",
		slog.Int("index", index),
		slog.String("path", req.Path),
	)
	writeJSON(w, http.StatusCreated, SourceResponse{Index: index, Path: req.Path})
}

// RemoveLastSource handles DELETE /sources/last requests.
func (h *Handlers) RemoveLastSource(w http.ResponseWriter, r *http.Request) {
	if !h.registry.RemoveLast() {
		writeError(w, http.StatusNotFound, "no sources to remove", codeRegistryEmpty)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SourceThumbnail handles GET /sources/{index}/thumbnail requests.
// The optional format query parameter selects png (default) or webp.
func (h *Handlers) SourceThumbnail(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer", codeInvalidIndex)
		return
	}

	src, ok := h.registry.At(index)
	if !ok {
		writeError(w, http.StatusNotFound, "source not found", codeSourceNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != media.ThumbnailPNG && format != media.ThumbnailWebP {
		writeError(w, http.StatusBadRequest, "format must be png or webp", codeValidation)
		return
	}

	png, err := h.decoder.Thumbnail(r.Context(), src.Path(), h.thumbnailWidth)
	if err != nil {
		h.logger.Warn("thumbnail failed",
			slog.Int("index", index),
			slog.String("path", src.Path()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnprocessableEntity, "could not render thumbnail", codeThumbnailFailed)
		return
	}

	data, contentType, err := media.ConvertThumbnail(png, format)
	if err != nil {
		h.logger.Warn("thumbnail conversion failed",
			slog.Int("index", index),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnprocessableEntity, "could not render thumbnail", codeThumbnailFailed)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// CreateExport handles POST /exports requests. It merges the current
// registry contents; the export keeps running after the response is sent.
func (h *Handlers) CreateExport(w http.ResponseWriter, r *http.Request) {
	sources := h.registry.Snapshot()

	handle, err := h.exporter.Export(context.WithoutCancel(r.Context()), sources,
		job.WithCompletion(func(o job.Outcome) {
			if o.Err != nil {
				h.logger.Warn("export finished with error",
					slog.String("job_id", o.JobID),
					slog.String("error", o.Err.Error()),
				)
				return
			}
			h.logger.Info("export finished",
				slog.String("job_id", o.JobID),
				slog.String("location", o.Location),
			)
		}),
	)
	if err != nil {
		h.writeExportError(w, err)
		return
	}

	status := string(job.StatusEncoding)
	if j, err := h.exporter.Job(r.Context(), handle.JobID()); err == nil {
		status = string(j.Status)
	}

	writeJSON(w, http.StatusAccepted, CreateExportResponse{
		ID:     handle.JobID(),
		Status: status,
	})
}

func (h *Handlers) writeExportError(w http.ResponseWriter, err error) {
	code := job.ErrorCode(err)
	var readErr *composition.SourceReadError

	switch {
	case errors.Is(err, composition.ErrEmptyInput):
		writeError(w, http.StatusUnprocessableEntity, "no sources to export", code)
	case errors.Is(err, job.ErrBusy):
		writeError(w, http.StatusConflict, "an export is already in progress", code)
	case errors.As(err, &readErr):
		writeError(w, http.StatusUnprocessableEntity, readErr.Error(), code)
	default:
		h.logger.Error("failed to start export",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to start export", code)
	}
}

// ListExports handles GET /exports requests.
func (h *Handlers) ListExports(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.exporter.Jobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list exports",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list exports", codeInternal)
		return
	}

	resp := ExportListResponse{Exports: make([]ExportResponse, len(jobs))}
	for i, j := range jobs {
		resp.Exports[i] = toExportResponse(j)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetExport handles GET /exports/{id} requests.
func (h *Handlers) GetExport(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	found, err := h.exporter.Job(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "export not found", codeExportNotFound)
			return
		}
		h.logger.Error("failed to get export",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get export", codeInternal)
		return
	}

	writeJSON(w, http.StatusOK, toExportResponse(found))
}

func toExportResponse(j *job.Job) ExportResponse {
	resp := ExportResponse{
		ID:         j.ID,
		Status:     string(j.GetStatus()),
		Finished:   j.IsTerminal(),
		Sources:    j.Sources,
		OutputPath: j.OutputPath,
		Location:   j.Location,
		Error:      j.Error,
		ErrorCode:  j.ErrorCode,
		CreatedAt:  j.CreatedAt,
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	if !j.CompletedAt.IsZero() {
		completed := j.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
