package rest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func relayTarget(base, path, query string) string {
	q := url.Values{"_n8nUrl": {base}, "_apiKey": {"secret"}}.Encode()
	if query != "" {
		q = query + "&" + q
	}
	return RelayPrefix + path + "?" + q
}

func TestRelayPreflight(t *testing.T) {
	s, fake, _ := newTestServer(t, nil)

	rec := do(s, http.MethodOptions, RelayPrefix+"workflows", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
	require.Empty(t, fake.calls)
}

func TestRelayMissingCredentials(t *testing.T) {
	for scenario, tc := range map[string]struct {
		query       string
		receivedUrl string
		receivedKey string
	}{
		"nothing":  {"", "no", "no"},
		"only url": {"_n8nUrl=https%3A%2F%2Fn8n.example.com", "yes", "no"},
		"only key": {"_apiKey=k", "no", "yes"},
	} {
		t.Run(scenario, func(t *testing.T) {
			s, _, _ := newTestServer(t, nil)
			rec := do(s, http.MethodGet, RelayPrefix+"workflows?"+tc.query, "", "")

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			body := decodeBody(t, rec)
			require.Equal(t, "Missing n8n URL or API Key", body["error"])
			require.Equal(t, tc.receivedUrl, body["receivedUrl"])
			require.Equal(t, tc.receivedKey, body["receivedKey"])
		})
	}
}

func TestRelayForwardsRequest(t *testing.T) {
	s, fake, base := newTestServer(t, map[string]response{
		"GET /api/v1/executions": {200, `{"data":[],"nextCursor":"abc"}`},
	})

	rec := do(s, http.MethodGet, relayTarget(base, "executions", "limit=250&workflowId=w%201&_ts=123"), "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"data":[],"nextCursor":"abc"}`, rec.Body.String())
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	call := fake.last()
	require.Equal(t, "/api/v1/executions", call.path)
	require.Equal(t, "limit=250&workflowId=w%201", call.rawQuery)
	require.Equal(t, "secret", call.apiKey)
}

func TestRelayForwardsBodyAndStatus(t *testing.T) {
	s, fake, base := newTestServer(t, map[string]response{
		"POST /api/v1/workflows/9/activate": {400, `{"message":"Workflow has no trigger"}`},
	})

	rec := do(s, http.MethodPost, relayTarget(base, "workflows/9/activate", ""), "", `{"x":1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, `{"message":"Workflow has no trigger"}`, rec.Body.String())
	call := fake.last()
	require.Equal(t, http.MethodPost, call.method)
	require.Equal(t, `{"x":1}`, call.body)
	require.Empty(t, call.rawQuery)
	require.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RelayRequestsTotal.WithLabelValues("POST", "400")))
}

func TestRelayRejectsOversizedBody(t *testing.T) {
	s, fake, base := newTestServer(t, map[string]response{
		"POST /api/v1/workflows": {200, `{}`},
	})

	rec := do(s, http.MethodPost, relayTarget(base, "workflows", ""), "", strings.Repeat("x", MaxRelayBody+1))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "request body too large", decodeBody(t, rec)["error"])
	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Empty(t, fake.calls)
}

func TestRelayUnreachableServer(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	rec := do(s, http.MethodGet, relayTarget(dead.URL, "workflows", ""), "", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestForwardedQuery(t *testing.T) {
	for scenario, tc := range map[string]struct {
		raw, want string
	}{
		"empty":           {"", ""},
		"only internal":   {"_n8nUrl=x&_apiKey=y", ""},
		"keeps order":     {"b=2&_apiKey=y&a=1", "?b=2&a=1"},
		"escaped key":     {"%5Fhidden=1&limit=5", "?limit=5"},
		"valueless param": {"flag&_x=1", "?flag"},
		"empty pairs":     {"&&a=1&", "?a=1"},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.Equal(t, tc.want, forwardedQuery(tc.raw))
		})
	}
}
