package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.TickerBuilt()
	r.TickerBuilt()
	r.TickerExcluded("insufficient_history")
	r.ObserveBuild(3*time.Second, 1200)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.tickersBuilt))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tickersExcluded.WithLabelValues("insufficient_history")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(r.datasetRows))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.TickerBuilt()
		r.TickerExcluded("x")
		r.ObserveFetch("mock", time.Millisecond)
		r.ObserveBuild(time.Second, 1)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveFetch("sqlite", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stox_fetch_duration_seconds")
}
