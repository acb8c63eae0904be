package rest

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/client"
	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/service"
)

const (
	ServerURLHeader = "X-N8N-URL"

	defaultInsightDays = 7
	maxInsightDays     = 365
)

var statusTabs = map[string]bool{"": true, "all": true, "success": true, "error": true, "running": true}

// credentials reads the n8n server and API key sent with every dashboard
// call and answers 401 when either is missing.
func credentials(w http.ResponseWriter, r *http.Request) (client.Credentials, bool) {
	creds := client.NewCredentials(r.Header.Get(ServerURLHeader), r.Header.Get(client.APIKeyHeader))
	if !creds.Valid() {
		respondWithError(w, http.StatusUnauthorized, "Missing n8n URL or API Key")
		return creds, false
	}
	return creds, true
}

func (s *Server) HandleCheckSession(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	if err := s.dashboardService.CheckConnection(r.Context(), creds); err != nil {
		respondWithJSON(w, statusFor(err), map[string]any{
			"connected": false,
			"error":     client.ConnectionMessage(err),
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"connected": true, "baseUrl": creds.BaseURL})
}

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	var active *bool
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		active = &b
	}
	wfs, err := s.dashboardService.Workflows(r.Context(), creds, active)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"data": wfs})
}

type toggleRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) HandleToggleWorkflow(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		respondWithError(w, http.StatusBadRequest, "body must be {\"active\": bool}")
		return
	}
	id := mux.Vars(r)["id"]
	wf, err := s.dashboardService.ToggleWorkflow(r.Context(), creds, id, *req.Active)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleListExecutions(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := service.ExecutionsQuery{
		WorkflowID: q.Get("workflowId"),
		Cursor:     q.Get("cursor"),
		Status:     q.Get("status"),
	}
	if !statusTabs[query.Status] {
		respondWithError(w, http.StatusBadRequest, "status must be one of all, success, error, running")
		return
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		query.Limit = limit
	}
	list, err := s.dashboardService.Executions(r.Context(), creds, query)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	viewport, ok := viewportParam(w, r)
	if !ok {
		return
	}
	detail, err := s.dashboardService.ExecutionDetail(r.Context(), creds, mux.Vars(r)["id"], viewport)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

func (s *Server) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	viewport, ok := viewportParam(w, r)
	if !ok {
		return
	}
	view, err := s.dashboardService.Graph(r.Context(), creds, mux.Vars(r)["id"], viewport)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleInsights(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentials(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := service.InsightsQuery{
		Days:       defaultInsightDays,
		WorkflowID: q.Get("workflowId"),
	}
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 || days > maxInsightDays {
			respondWithError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		query.Days = days
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "refresh must be true or false")
			return
		}
		query.Refresh = refresh
	}
	res, err := s.dashboardService.Insights(r.Context(), creds, query)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	logger.Debug("insights served", zap.String("source", res.Source), zap.Int("days", res.Days), zap.Int("total", res.Total))
	respondWithJSON(w, http.StatusOK, res)
}

// viewportParam reads the optional viewport width in CSS pixels; 0 means
// unknown and yields the default scale.
func viewportParam(w http.ResponseWriter, r *http.Request) (float64, bool) {
	v := r.URL.Query().Get("viewport")
	if v == "" {
		return 0, true
	}
	viewport, err := strconv.ParseFloat(v, 64)
	if err != nil || viewport < 0 || math.IsNaN(viewport) || math.IsInf(viewport, 0) {
		respondWithError(w, http.StatusBadRequest, "viewport must be a non-negative number")
		return 0, false
	}
	return viewport, true
}
