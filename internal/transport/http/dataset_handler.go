// Package http contains the chi handlers exposing the fused tables and
// correlation results as a JSON API.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"leetlens/internal/correlation"
	apperrors "leetlens/internal/errors"
	"leetlens/internal/middleware"
	"leetlens/pkg/contracts/domain"
)

// DatasetHandler serves the dataset, analytics and correlation endpoints.
type DatasetHandler struct {
	service  PipelineService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewDatasetHandler creates a dataset handler.
func NewDatasetHandler(service PipelineService, logger *slog.Logger) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "dataset_handler")),
		validate: validator.New(),
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dataset", h.GetDataset)
	r.Get("/dataset/topics", h.GetTopics)
	r.Get("/dataset/stats", h.GetStats)
	r.Get("/correlations", h.GetCorrelations)
	r.Post("/refresh", h.Refresh)

	return r
}

// GetDataset handles GET /api/v1/dataset.
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.UnifiedDataset(r.Context(), false)
	if err != nil {
		if ok := h.renderEmptyOnNoData(w, r, err, &domain.UnifiedDataset{Records: []domain.ProblemRecord{}}); ok {
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, ds)
}

// GetTopics handles GET /api/v1/dataset/topics.
func (h *DatasetHandler) GetTopics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ExplodedTopics(r.Context(), false)
	if err != nil {
		if ok := h.renderEmptyOnNoData(w, r, err, []domain.TopicRow{}); ok {
			return
		}
		h.renderError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.TopicRow{}
	}
	render.JSON(w, r, rows)
}

// GetStats handles GET /api/v1/dataset/stats.
func (h *DatasetHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CompanyStats(r.Context(), false)
	if err != nil {
		if ok := h.renderEmptyOnNoData(w, r, err, []domain.CompanyStats{}); ok {
			return
		}
		h.renderError(w, r, err)
		return
	}
	if stats == nil {
		stats = []domain.CompanyStats{}
	}
	render.JSON(w, r, stats)
}

// correlationParams are the validated query parameters of the correlations
// endpoint.
type correlationParams struct {
	Metric          string   `validate:"oneof=composite"`
	Companies       []string `validate:"omitempty,max=100,dive,min=1"`
	Top             int      `validate:"min=0,max=10000"`
	IncludeFeatures bool
}

// GetCorrelations handles GET /api/v1/correlations. Degenerate inputs come
// back as a well-formed empty result with a reason, never as an error status.
func (h *DatasetHandler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	params, apiErr := h.parseCorrelationParams(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	set, err := h.service.CompanyCorrelations(r.Context(), correlation.Options{
		Companies:       params.Companies,
		TopN:            params.Top,
		IncludeFeatures: params.IncludeFeatures,
	})
	if err != nil {
		if ok := h.renderEmptyOnNoData(w, r, err, &domain.CorrelationSet{
			Companies:       []string{},
			TopCorrelations: []domain.CorrelationResult{},
			Reason:          "no usable source data",
		}); ok {
			return
		}
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, set)
}

// Refresh handles POST /api/v1/refresh, forcing a rebuild of every table.
func (h *DatasetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RefreshAll(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

func (h *DatasetHandler) parseCorrelationParams(r *http.Request) (*correlationParams, *apperrors.APIError) {
	params := &correlationParams{Metric: correlation.MetricComposite}
	query := r.URL.Query()

	if raw := query.Get("metric"); raw != "" {
		params.Metric = raw
	}
	if raw := query.Get("companies"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if name := strings.TrimSpace(part); name != "" {
				params.Companies = append(params.Companies, name)
			}
		}
	}
	if raw := query.Get("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.InvalidParameter("top", "top must be an integer")
		}
		params.Top = top
	}
	if raw := query.Get("include_features"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.InvalidParameter("include_features", "include_features must be a boolean")
		}
		params.IncludeFeatures = include
	}

	if err := h.validate.Struct(params); err != nil {
		return nil, apperrors.NewAPIErrorWithDetails(
			http.StatusBadRequest, "INVALID_PARAMETER", "invalid query parameters", err.Error())
	}
	return params, nil
}

// renderEmptyOnNoData maps the zero-usable-rows outcome to an empty payload
// with a 200 status; an empty corpus is data, not a fault.
func (h *DatasetHandler) renderEmptyOnNoData(w http.ResponseWriter, r *http.Request, err error, empty any) bool {
	var ingestErr *apperrors.IngestError
	if !apperrors.As(err, &ingestErr) {
		return false
	}
	h.logger.WarnContext(r.Context(), "serving empty result, no usable source data",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("skipped_files", len(ingestErr.SkippedFiles)))
	render.JSON(w, r, empty)
	return true
}

func (h *DatasetHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))

	if apperrors.Is(err, apperrors.ErrRootNotFound) {
		render.Render(w, r, apperrors.ConfigurationError(err))
		return
	}
	var ingestErr *apperrors.IngestError
	if apperrors.As(err, &ingestErr) {
		render.Render(w, r, apperrors.IngestFailure(ingestErr))
		return
	}
	render.Render(w, r, apperrors.ErrInternalServer)
}
