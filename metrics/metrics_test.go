package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.ObserveUpstream(http.MethodGet, 200, 30*time.Millisecond)
	m.ObserveUpstream(http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveUpstream(http.MethodPost, 0, time.Millisecond)
	m.RecordRelay(http.MethodGet, 401, time.Millisecond)
	m.RecordPage(250)
	m.RecordPage(12)
	m.RecordLayoutCache(true)
	m.RecordLayoutCache(false)
	m.RecordLayoutCache(false)
	m.RecordAggregation("snapshot")

	require.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("POST", "0")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RelayRequestsTotal.WithLabelValues("GET", "401")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.AggregationPagesTotal))
	require.Equal(t, 262.0, testutil.ToFloat64(m.AggregationRecordsTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(m.LayoutCacheTotal.WithLabelValues("hit")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.LayoutCacheTotal.WithLabelValues("miss")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AggregationsTotal.WithLabelValues("snapshot")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/workflows", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `n8n_dashboard_http_requests_total{method="GET",route="/workflows",status="200"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordPage(1)
	require.Equal(t, 0.0, testutil.ToFloat64(b.AggregationPagesTotal))
}
