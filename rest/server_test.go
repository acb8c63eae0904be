package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fernandosegrr/Webhook-HUB/client"
	"github.com/fernandosegrr/Webhook-HUB/config"
	"github.com/fernandosegrr/Webhook-HUB/container"
	"github.com/fernandosegrr/Webhook-HUB/service"
)

type upstreamCall struct {
	method   string
	path     string
	rawQuery string
	apiKey   string
	body     string
}

type response struct {
	status int
	body   string
}

// fakeN8n answers from a fixed route table keyed by "METHOD path".
type fakeN8n struct {
	mu     sync.Mutex
	routes map[string]response
	calls  []upstreamCall
}

func (f *fakeN8n) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, upstreamCall{
		method:   r.Method,
		path:     r.URL.EscapedPath(),
		rawQuery: r.URL.RawQuery,
		apiKey:   r.Header.Get(client.APIKeyHeader),
		body:     string(body),
	})
	res, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		res = response{http.StatusNotFound, `{"message":"Not Found"}`}
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(res.status)
	_, _ = w.Write([]byte(res.body))
}

func (f *fakeN8n) last() upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestServer(t *testing.T, routes map[string]response) (*Server, *fakeN8n, string) {
	fake := &fakeN8n{routes: routes}
	upstream := httptest.NewServer(fake)
	t.Cleanup(upstream.Close)

	c := container.NewDiContainer()
	c.Init(config.Config{StorageType: config.STORAGE_TYPE_INMEM})
	dashboard := service.NewDashboardService(c, time.Second, time.Minute)
	s, err := NewServer(0, dashboard, NewRelay(time.Second, c.GetMetrics()), c.GetMetrics())
	require.NoError(t, err)
	return s, fake, upstream.URL
}

func do(s *Server, method, target, baseURL, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if baseURL != "" {
		req.Header.Set(ServerURLHeader, baseURL)
		req.Header.Set(client.APIKeyHeader, "secret")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndRequestID(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
	require.Equal(t, "ok", decodeBody(t, rec)["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	do(s, http.MethodGet, "/health", "", "")
	rec := do(s, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `n8n_dashboard_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestMissingCredentials(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/workflows", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Missing n8n URL or API Key", decodeBody(t, rec)["error"])
}

func TestCheckSession(t *testing.T) {
	for scenario, tc := range map[string]struct {
		upstream  response
		code      int
		connected bool
		message   string
	}{
		"ok":           {response{200, `{"data":[]}`}, 200, true, ""},
		"bad key":      {response{401, `{"message":"unauthorized"}`}, 401, false, "Invalid API key"},
		"forbidden":    {response{403, `{}`}, 403, false, "Permission denied. Check your API key."},
		"wrong url":    {response{404, `nope`}, 404, false, "Endpoint not found. Check the URL"},
		"server error": {response{503, `{}`}, 503, false, "Server error: 503"},
	} {
		t.Run(scenario, func(t *testing.T) {
			s, fake, base := newTestServer(t, map[string]response{"GET /api/v1/workflows": tc.upstream})

			rec := do(s, http.MethodPost, "/session/check", base, "")

			require.Equal(t, tc.code, rec.Code)
			body := decodeBody(t, rec)
			require.Equal(t, tc.connected, body["connected"])
			if tc.message != "" {
				require.Equal(t, tc.message, body["error"])
			}
			require.Equal(t, "limit=1", fake.last().rawQuery)
		})
	}
}

func TestCheckSessionUnreachable(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	rec := do(s, http.MethodPost, "/session/check", dead.URL, "")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "Cannot connect to the server. Check the URL or CORS.", decodeBody(t, rec)["error"])
}

func TestListWorkflows(t *testing.T) {
	s, fake, base := newTestServer(t, map[string]response{
		"GET /api/v1/workflows": {200, `{"data":[{"id":"1","name":"Daily","active":true,"nodes":[],"connections":{}}]}`},
	})

	rec := do(s, http.MethodGet, "/workflows?active=true", base, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "active=true", fake.last().rawQuery)
	require.Equal(t, "secret", fake.last().apiKey)
	data := decodeBody(t, rec)["data"].([]any)
	require.Len(t, data, 1)

	rec = do(s, http.MethodGet, "/workflows?active=maybe", base, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleWorkflow(t *testing.T) {
	s, fake, base := newTestServer(t, map[string]response{
		"POST /api/v1/workflows/7/activate": {200, `{"id":"7","name":"wf","active":true}`},
	})

	rec := do(s, http.MethodPost, "/workflows/7/toggle", base, `{"active":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["active"])
	require.Equal(t, "/api/v1/workflows/7/activate", fake.last().path)

	rec = do(s, http.MethodPost, "/workflows/7/toggle", base, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/workflows/7/toggle", base, `{"active":false}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", decodeBody(t, rec)["error"])
}

func TestListExecutions(t *testing.T) {
	s, fake, base := newTestServer(t, map[string]response{
		"GET /api/v1/executions": {200, `{"data":[
			{"id":1,"workflowId":"7","status":"success"},
			{"id":2,"workflowId":"7","finished":false}
		],"nextCursor":"next"}`},
	})

	rec := do(s, http.MethodGet, "/executions?workflowId=7&limit=20&status=error", base, "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "next", body["nextCursor"])
	execs := body["executions"].([]any)
	require.Len(t, execs, 1)
	require.Equal(t, "2", execs[0].(map[string]any)["id"])
	require.Contains(t, fake.last().rawQuery, "workflowId=7")
	require.Contains(t, fake.last().rawQuery, "limit=20")

	for _, bad := range []string{"/executions?status=weird", "/executions?limit=0", "/executions?limit=x"} {
		require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, bad, base, "").Code, bad)
	}
}

func TestExecutionDetailAndGraph(t *testing.T) {
	s, _, base := newTestServer(t, map[string]response{
		"GET /api/v1/executions/5": {200, `{"id":5,"workflowId":"7","status":"success",
			"data":{"resultData":{"runData":{"Start":[{"executionTime":2}]}}}}`},
		"GET /api/v1/workflows/7": {200, `{"id":"7","name":"wf","nodes":[
			{"name":"Start","type":"n8n-nodes-base.manualTrigger","position":[100,100]},
			{"name":"End","type":"n8n-nodes-base.noOp","position":[400,100]}
		],"connections":{"Start":{"main":[[{"node":"End","type":"main","index":0}]]}}}`},
	})

	rec := do(s, http.MethodGet, "/executions/5?viewport=400", base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody(t, rec)
	require.Equal(t, float64(1), detail["executedNodes"])
	require.Equal(t, "success", detail["summary"].(map[string]any)["status"])
	nodes := detail["nodes"].([]any)
	require.Len(t, nodes, 1)
	require.Equal(t, "Start", nodes[0].(map[string]any)["name"])

	rec = do(s, http.MethodGet, "/executions/5/graph?viewport=600", base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody(t, rec)
	layout := view["layout"].(map[string]any)
	require.Equal(t, 600.0, layout["width"])
	require.Equal(t, 1.0, view["scale"])
	require.Equal(t, 0.8, view["mobileScale"])
	edges := layout["edges"].([]any)
	require.Equal(t, "executed", edges[0].(map[string]any)["state"])

	require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/executions/5/graph?viewport=-1", base, "").Code)
	require.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/executions/6/graph", base, "").Code)
}

func TestInsights(t *testing.T) {
	now := time.Now().UTC()
	s, _, base := newTestServer(t, map[string]response{
		"GET /api/v1/executions": {200, `{"data":[
			{"id":1,"status":"success","startedAt":"` + now.Add(-time.Hour).Format(time.RFC3339) + `","stoppedAt":"` + now.Add(-time.Hour+2*time.Second).Format(time.RFC3339) + `"},
			{"id":2,"status":"error","startedAt":"` + now.Add(-2*time.Hour).Format(time.RFC3339) + `"},
			{"id":3,"status":"success","startedAt":"` + now.Add(-20*24*time.Hour).Format(time.RFC3339) + `"}
		]}`},
	})

	rec := do(s, http.MethodGet, "/insights", base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, 7.0, body["days"])
	require.Equal(t, 2.0, body["total"])
	require.Equal(t, 50.0, body["failureRate"])
	require.Equal(t, 2000.0, body["avgRunTime"])
	require.Equal(t, "upstream", body["source"])
	require.Len(t, body["daily"].([]any), 7)

	rec = do(s, http.MethodGet, "/insights?days=30", base, "")
	body = decodeBody(t, rec)
	require.Equal(t, 3.0, body["total"])
	require.Equal(t, "snapshot", body["source"])

	for _, bad := range []string{"/insights?days=0", "/insights?days=366", "/insights?days=x", "/insights?refresh=sometimes"} {
		require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, bad, base, "").Code, bad)
	}
}

func TestInsightsUpstreamFailure(t *testing.T) {
	s, _, base := newTestServer(t, map[string]response{
		"GET /api/v1/executions": {500, `{"message":"boom"}`},
	})
	rec := do(s, http.MethodGet, "/insights?days=7", base, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "page 1")
}
