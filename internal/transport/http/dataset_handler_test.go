package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetlens/internal/config"
	"leetlens/internal/correlation"
	apperrors "leetlens/internal/errors"
	"leetlens/internal/services"
	"leetlens/pkg/contracts"
	"leetlens/pkg/contracts/domain"
)

// stubPipeline returns canned responses and records the options it was
// called with.
type stubPipeline struct {
	dataset *domain.UnifiedDataset
	topics  []domain.TopicRow
	stats   []domain.CompanyStats
	set     *domain.CorrelationSet
	summary *services.RefreshSummary
	err     error

	correlationOpts correlation.Options
}

func (s *stubPipeline) UnifiedDataset(ctx context.Context, forceRefresh bool) (*domain.UnifiedDataset, error) {
	return s.dataset, s.err
}

func (s *stubPipeline) ExplodedTopics(ctx context.Context, forceRefresh bool) ([]domain.TopicRow, error) {
	return s.topics, s.err
}

func (s *stubPipeline) CompanyStats(ctx context.Context, forceRefresh bool) ([]domain.CompanyStats, error) {
	return s.stats, s.err
}

func (s *stubPipeline) CompanyCorrelations(ctx context.Context, opts correlation.Options) (*domain.CorrelationSet, error) {
	s.correlationOpts = opts
	return s.set, s.err
}

func (s *stubPipeline) RefreshAll(ctx context.Context) (*services.RefreshSummary, error) {
	return s.summary, s.err
}

func serve(t *testing.T, stub *stubPipeline, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewDatasetHandler(stub, nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetDataset(t *testing.T) {
	stub := &stubPipeline{dataset: &domain.UnifiedDataset{
		Records:      []domain.ProblemRecord{{Title: "Two Sum", Company: "Google"}},
		CompanyCount: 1,
		ProblemCount: 1,
	}}

	rec := serve(t, stub, http.MethodGet, "/dataset")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.UnifiedDataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.CompanyCount)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Two Sum", got.Records[0].Title)
}

func TestGetDatasetNoUsableDataIsEmptyNotError(t *testing.T) {
	stub := &stubPipeline{err: apperrors.NewIngestError(apperrors.ErrNoUsableData, []apperrors.SkippedFile{
		{Company: "Google", Path: "a.csv", Reason: "unreadable"},
	})}

	rec := serve(t, stub, http.MethodGet, "/dataset")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.UnifiedDataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Records)
}

func TestGetDatasetMissingRootIsConfigurationError(t *testing.T) {
	stub := &stubPipeline{err: fmt.Errorf("%w: /data", apperrors.ErrRootNotFound)}

	rec := serve(t, stub, http.MethodGet, "/dataset")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIGURATION_ERROR")
}

func TestGetStats(t *testing.T) {
	stub := &stubPipeline{stats: []domain.CompanyStats{{Company: "Google", Problems: 3}}}

	rec := serve(t, stub, http.MethodGet, "/dataset/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.CompanyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Google", got[0].Company)
}

func TestGetTopicsEmptyIsJSONArray(t *testing.T) {
	rec := serve(t, &stubPipeline{}, http.MethodGet, "/dataset/topics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetCorrelationsParsesParams(t *testing.T) {
	stub := &stubPipeline{set: &domain.CorrelationSet{
		Companies:       []string{"Google", "Meta"},
		TopCorrelations: []domain.CorrelationResult{},
	}}

	rec := serve(t, stub, http.MethodGet, "/correlations?companies=Google,%20Meta&top=5&include_features=true")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"Google", "Meta"}, stub.correlationOpts.Companies)
	assert.Equal(t, 5, stub.correlationOpts.TopN)
	assert.True(t, stub.correlationOpts.IncludeFeatures)
}

func TestGetCorrelationsInvalidParams(t *testing.T) {
	stub := &stubPipeline{set: &domain.CorrelationSet{}}

	rec := serve(t, stub, http.MethodGet, "/correlations?top=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMETER")

	rec = serve(t, stub, http.MethodGet, "/correlations?include_features=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, stub, http.MethodGet, "/correlations?top=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, stub, http.MethodGet, "/correlations?metric=pearson")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCorrelationsAcceptsCompositeMetric(t *testing.T) {
	stub := &stubPipeline{set: &domain.CorrelationSet{
		Companies:       []string{"Google", "Meta"},
		TopCorrelations: []domain.CorrelationResult{},
	}}

	rec := serve(t, stub, http.MethodGet, "/correlations?metric=composite")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCorrelationsEmptySetPassesThrough(t *testing.T) {
	stub := &stubPipeline{set: &domain.CorrelationSet{
		Companies:       []string{"Solo"},
		TopCorrelations: []domain.CorrelationResult{},
		Reason:          "fewer than two companies with data",
	}}

	rec := serve(t, stub, http.MethodGet, "/correlations")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.CorrelationSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "fewer than two companies with data", got.Reason)
	assert.NotNil(t, got.TopCorrelations)
}

func TestRefresh(t *testing.T) {
	stub := &stubPipeline{summary: &services.RefreshSummary{
		SourceFiles: 2,
		Records:     10,
		Companies:   2,
		Duration:    time.Second,
	}}

	rec := serve(t, stub, http.MethodPost, "/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var got services.RefreshSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 10, got.Records)
}

func TestHealthz(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	handler := NewHealthHandler(cfg)

	rec := httptest.NewRecorder()
	handler.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"`+contracts.Version+`"`)
	assert.Contains(t, rec.Body.String(), `"data_format":"`+contracts.DataFormatVersion+`"`)

	require.NoError(t, os.RemoveAll(cfg.Data.Root))
	rec = httptest.NewRecorder()
	handler.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterWiring(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	registry := prometheus.NewRegistry()
	stub := &stubPipeline{dataset: &domain.UnifiedDataset{Records: []domain.ProblemRecord{}}}

	router := NewRouter(cfg, stub, registry, nil)

	for _, target := range []string{"/api/v1/dataset", "/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", target)
	}
}
