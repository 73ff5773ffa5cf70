package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RowsGenerated.WithLabelValues("trip").Add(10)

	assert.Equal(t, 10.0, testutil.ToFloat64(a.RowsGenerated.WithLabelValues("trip")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsGenerated.WithLabelValues("trip")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RunsTotal.WithLabelValues("success").Inc()
	m.SinkBatches.WithLabelValues("file").Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `sbgen_runs_total{status="success"} 1`)
	assert.Contains(t, body, `sbgen_sink_batches_total{sink="file"} 3`)
	assert.Contains(t, body, "go_goroutines")
}
