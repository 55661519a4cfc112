package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"kpipulse/internal/dataprocessing"
	apierrors "kpipulse/internal/errors"
	"kpipulse/internal/exporter"
	kpimw "kpipulse/internal/middleware"
	"kpipulse/internal/services"
)

// Accepted upload media types.
var uploadContentTypes = []string{"text/csv", "text/plain", "multipart/form-data"}

// uploadField is the multipart form field carrying the CSV file.
const uploadField = "file"

// exportQuery holds the export query parameters.
type exportQuery struct {
	Format string `query:"format" validate:"oneof=csv xlsx"`
	Table  string `query:"table" validate:"oneof=series totals cards diagnostics"`
	Month  string `query:"month" validate:"omitempty,calendar_month"`
}

// DashboardHandler handles KPI dashboard uploads with RFC 7807 compliance
type DashboardHandler struct {
	service        DashboardServiceInterface
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	query          *kpimw.QueryParamValidator
	validator      *kpimw.ValidationMiddleware
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
		query:          kpimw.NewQueryParamValidator(logger, errorHandler),
		validator:      kpimw.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(kpimw.MaxBodySize(h.maxUploadBytes))
	r.Use(kpimw.ContentTypeValidator(h.errorHandler, uploadContentTypes...))

	r.Post("/", h.Process)
	r.Post("/cards", h.Cards)
	r.Post("/export", h.Export)

	return r
}

// Process handles POST /api/v1/dashboard
func (h *DashboardHandler) Process(w http.ResponseWriter, r *http.Request) {
	csvText, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.service.Process(r.Context(), csvText)
	if err != nil {
		h.fail(w, r, "process", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"counts": result.Counts(),
	})
}

// Cards handles POST /api/v1/dashboard/cards?month=
func (h *DashboardHandler) Cards(w http.ResponseWriter, r *http.Request) {
	month, ok := h.query.ValidateMonth(w, r, "month")
	if !ok {
		return
	}

	csvText, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	cards, err := h.service.Cards(r.Context(), csvText, month)
	if err != nil {
		h.fail(w, r, "cards", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   cards,
	})
}

// Export handles POST /api/v1/dashboard/export?format=csv|xlsx&table=&month=&display=
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := exportQuery{
		Format: strings.ToLower(values.Get("format")),
		Table:  strings.ToLower(values.Get("table")),
		Month:  canonicalMonth(values.Get("month")),
	}
	if query.Format == "" {
		query.Format = string(services.FormatCSV)
	}
	if query.Table == "" {
		query.Table = exporter.TableSeries
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	display, ok := h.boolParam(w, r, "display")
	if !ok {
		return
	}

	csvText, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	req := services.ExportRequest{
		Format:  services.ExportFormat(query.Format),
		Table:   query.Table,
		Month:   query.Month,
		Display: display,
	}

	// Buffer so a failed export can still be reported as a problem.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), csvText, req, &buf); err != nil {
		if !isRequestError(err) {
			err = apierrors.ExportError(query.Format, err)
		}
		h.fail(w, r, "export", err)
		return
	}

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": req.Format.Filename(query.Table),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
	}
}

// readUpload returns the CSV text from a raw body or a multipart file field.
func (h *DashboardHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body io.Reader = r.Body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile(uploadField)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.errorHandler.HandleError(w, r, err)
				return "", false
			}
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, fmt.Sprintf("multipart field %q is required", uploadField)))
			return "", false
		}
		defer file.Close()
		body = file
	}

	data, err := io.ReadAll(body)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to read upload: %w", err))
		return "", false
	}

	h.logger.DebugContext(r.Context(), "upload received",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("content_type", mediaType),
		slog.Int("bytes", len(data)))

	return string(data), true
}

func (h *DashboardHandler) boolParam(w http.ResponseWriter, r *http.Request, param string) (bool, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return false, true
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a boolean", param)))
		return false, false
	}
	return b, true
}

// fail maps service errors to API errors.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.WarnContext(r.Context(), "dashboard request failed",
		slog.String("action", action),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, services.ErrEmptyUpload):
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptyUpload)
	case errors.Is(err, services.ErrUnknownFormat):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
	case errors.Is(err, services.ErrUnknownTable):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("table", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// isRequestError reports errors caused by the upload or the request rather
// than by the exporter.
func isRequestError(err error) bool {
	return errors.Is(err, services.ErrEmptyUpload) ||
		errors.Is(err, services.ErrUnknownFormat) ||
		errors.Is(err, services.ErrUnknownTable) ||
		errors.Is(err, dataprocessing.ErrCatastrophicParse) ||
		errors.Is(err, dataprocessing.ErrMissingData) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// canonicalMonth returns the calendar spelling of a month name given in any
// case, or the trimmed input when it names no month.
func canonicalMonth(value string) string {
	value = strings.TrimSpace(value)
	for _, month := range dataprocessing.CalendarMonths() {
		if strings.EqualFold(value, month) {
			return month
		}
	}
	return value
}
