package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stox/backend/internal/api/handlers"
	"github.com/wonny/stox/backend/internal/brain"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/internal/s3_dataset"
	"github.com/wonny/stox/backend/pkg/logger"
	"github.com/wonny/stox/backend/pkg/metrics"
)

type stubRunner struct{ ran []string }

func (s *stubRunner) RunJob(name string) error {
	s.ran = append(s.ran, name)
	return nil
}

func newTestRouter(t *testing.T, build bool) (http.Handler, *stubRunner) {
	t.Helper()
	log := logger.Nop()
	src := s0_data.NewMockSource(400, 1)
	store := brain.NewStore(2)
	rec := metrics.New()

	if build {
		agg := s3_dataset.NewAggregator(s3_dataset.NewTickerBuilder(src, log), src, s0_data.NewStaticIndexResolver(nil), 2, log, rec)
		p := profile.Default()
		p.Dataset.Lookback = 10
		p.Universe.Markets = []string{s0_data.MockMarket}
		_, err := brain.NewOrchestrator(agg, src, store, log).Run(context.Background(), brain.RunConfig{Profile: p, Evaluate: true})
		require.NoError(t, err)
	}

	runner := &stubRunner{}
	return NewRouter(Handlers{
		Dataset: handlers.NewDatasetHandler(store, runner, log),
		Data:    handlers.NewDataHandler(src, src, log),
		Metrics: rec.Handler(),
	}, log), runner
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, false)
	rec, body := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestDataset_NotBuiltYet(t *testing.T) {
	h, _ := newTestRouter(t, false)
	rec, _ := get(t, h, "/api/dataset")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDatasetEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, true)

	rec, body := get(t, h, "/api/dataset")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["run_id"])
	assert.Greater(t, body["rows"].(float64), 0.0)

	rec, body = get(t, h, "/api/dataset/rows?symbol=_MOCK_EASY[MOCK]&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["rows"].([]interface{})
	assert.Len(t, rows, 3)
	assert.Equal(t, "_MOCK_EASY[MOCK]", rows[0].(map[string]interface{})["symbol"])

	rec, _ = get(t, h, "/api/dataset/rows?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// predictor rows may carry NaN and must still encode
	rec, body = get(t, h, "/api/predictors")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["predictors"], 2)

	rec, body = get(t, h, "/api/rankings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "results")

	rec, _ = get(t, h, "/api/dataset?run_id=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["runs"], 1)
}

func TestDataEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, false)

	rec, body := get(t, h, "/api/data/tickers?market=MOCK")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["tickers"], 2)

	rec, body = get(t, h, "/api/data/series/_MOCK_EASY[MOCK]?from=1970-01-10")
	require.Equal(t, http.StatusOK, rec.Code)
	bars := body["bars"].([]interface{})
	assert.Equal(t, "1970-01-10", bars[0].(map[string]interface{})["date"])

	rec, _ = get(t, h, "/api/data/series/BHP")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerJob(t *testing.T) {
	h, runner := newTestRouter(t, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/dataset_build/run", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"dataset_build"}, runner.ran)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, true)
	rec, _ := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stox_tickers_built_total")
}
