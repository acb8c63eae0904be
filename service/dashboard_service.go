package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/aggregator"
	"github.com/fernandosegrr/Webhook-HUB/analytics"
	"github.com/fernandosegrr/Webhook-HUB/cache"
	"github.com/fernandosegrr/Webhook-HUB/client"
	"github.com/fernandosegrr/Webhook-HUB/container"
	"github.com/fernandosegrr/Webhook-HUB/execution"
	"github.com/fernandosegrr/Webhook-HUB/graph"
	"github.com/fernandosegrr/Webhook-HUB/insights"
	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/metrics"
	"github.com/fernandosegrr/Webhook-HUB/model"
	"github.com/fernandosegrr/Webhook-HUB/persistence"
)

const (
	DefaultSnapshotTTL = 5 * time.Minute

	SourceSnapshot = "snapshot"
	SourceUpstream = "upstream"
)

// DashboardService runs every dashboard operation against the n8n server
// named by the per-request credentials. It holds no credentials itself.
type DashboardService struct {
	snapshots   persistence.SnapshotStore
	layouts     *cache.LayoutCache
	metrics     *metrics.Metrics
	timeout     time.Duration
	snapshotTTL time.Duration
	relayURL    string
	now         func() time.Time
}

func NewDashboardService(container *container.DIContiner, timeout time.Duration, snapshotTTL time.Duration) *DashboardService {
	if snapshotTTL <= 0 {
		snapshotTTL = DefaultSnapshotTTL
	}
	return &DashboardService{
		snapshots:   container.GetSnapshotStore(),
		layouts:     container.GetLayoutCache(),
		metrics:     container.GetMetrics(),
		timeout:     timeout,
		snapshotTTL: snapshotTTL,
		now:         time.Now,
	}
}

// UseRelay sends every upstream call through the relay at relayURL instead
// of reaching the n8n servers directly.
func (s *DashboardService) UseRelay(relayURL string) {
	s.relayURL = relayURL
}

func (s *DashboardService) client(creds client.Credentials) *client.Client {
	opts := []client.Option{client.WithObserver(s.metrics)}
	if s.timeout > 0 {
		opts = append(opts, client.WithTimeout(s.timeout))
	}
	if s.relayURL != "" {
		opts = append(opts, client.WithRelay(s.relayURL))
	}
	return client.New(creds, opts...)
}

// CheckConnection validates credentials before a session is started.
func (s *DashboardService) CheckConnection(ctx context.Context, creds client.Credentials) error {
	if err := s.client(creds).CheckConnection(ctx); err != nil {
		logger.Info("connection check failed", zap.String("server", creds.BaseURL), zap.Error(err))
		return err
	}
	return nil
}

func (s *DashboardService) Workflows(ctx context.Context, creds client.Credentials, active *bool) ([]model.Workflow, error) {
	wfs, err := s.client(creds).ListWorkflows(ctx, active)
	if err != nil {
		return nil, err
	}
	if wfs == nil {
		wfs = []model.Workflow{}
	}
	return wfs, nil
}

func (s *DashboardService) ToggleWorkflow(ctx context.Context, creds client.Credentials, id string, active bool) (*model.Workflow, error) {
	wf, err := s.client(creds).ToggleWorkflow(ctx, id, active)
	if err != nil {
		logger.Error("error toggling workflow", zap.String("workflowId", id), zap.Bool("active", active), zap.Error(err))
		return nil, err
	}
	logger.Info("workflow toggled", zap.String("workflowId", id), zap.Bool("active", wf.Active))
	return wf, nil
}

type ExecutionsQuery struct {
	WorkflowID string
	Cursor     string
	Limit      int
	// Status is one of "all", "success", "error" or "running".
	Status string
}

type ExecutionList struct {
	Executions []execution.Summary `json:"executions"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

// Executions returns one page of executions, narrowed to the requested
// status after retrieval.
func (s *DashboardService) Executions(ctx context.Context, creds client.Credentials, q ExecutionsQuery) (*ExecutionList, error) {
	page, err := s.client(creds).ListExecutions(ctx, client.ExecutionQuery{
		WorkflowID: q.WorkflowID,
		Cursor:     q.Cursor,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, err
	}
	filtered := execution.Filter(page.Data, q.Status)
	list := &ExecutionList{
		Executions: make([]execution.Summary, 0, len(filtered)),
		NextCursor: page.NextCursor,
	}
	for i := range filtered {
		list.Executions = append(list.Executions, execution.Summarize(&filtered[i]))
	}
	return list, nil
}

// GraphView is a layout with its fitted scale and the zoom levels one step
// away from it.
type GraphView struct {
	Layout       *graph.Layout `json:"layout"`
	Scale        float64       `json:"scale"`
	MobileScale  float64       `json:"mobileScale"`
	ZoomInScale  float64       `json:"zoomInScale"`
	ZoomOutScale float64       `json:"zoomOutScale"`
	MinScale     float64       `json:"minScale"`
	MaxScale     float64       `json:"maxScale"`
}

// NodeDetail is what the detail panel shows for one executed node.
type NodeDetail struct {
	Name          string           `json:"name"`
	Status        execution.Status `json:"status"`
	Error         string           `json:"error,omitempty"`
	InputPreview  string           `json:"inputPreview,omitempty"`
	OutputPreview string           `json:"outputPreview,omitempty"`
}

type ExecutionDetail struct {
	Summary       execution.Summary `json:"summary"`
	Execution     *model.Execution  `json:"execution"`
	WorkflowName  string            `json:"workflowName,omitempty"`
	ExecutedNodes int               `json:"executedNodes"`
	ErrorNodes    int               `json:"errorNodes"`
	Nodes         []NodeDetail      `json:"nodes,omitempty"`
	Graph         *GraphView        `json:"graph,omitempty"`
}

// ExecutionDetail loads one execution with its run data and, when the
// workflow can still be read, the graph of that run. A workflow that was
// deleted or cannot be read leaves Graph nil without failing the call.
func (s *DashboardService) ExecutionDetail(ctx context.Context, creds client.Credentials, id string, viewport float64) (*ExecutionDetail, error) {
	c := s.client(creds)
	e, err := c.GetExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ExecutionDetail{
		Summary:   execution.Summarize(e),
		Execution: e,
	}
	wf, err := c.GetWorkflow(ctx, e.WorkflowID.String())
	if err != nil {
		logger.Warn("workflow unavailable for execution graph",
			zap.String("executionId", id), zap.String("workflowId", e.WorkflowID.String()), zap.Error(err))
		return detail, nil
	}
	detail.WorkflowName = wf.Name
	detail.Graph = s.graphView(creds, wf, e, viewport)
	executed := detail.Graph.Layout.Executed()
	detail.ExecutedNodes = len(executed)
	detail.ErrorNodes = len(detail.Graph.Layout.Failed())
	detail.Nodes = make([]NodeDetail, 0, len(executed))
	for _, n := range executed {
		detail.Nodes = append(detail.Nodes, NodeDetail{
			Name:          n.DisplayName,
			Status:        n.Status,
			Error:         n.Error,
			InputPreview:  graph.Preview(n.InputData, graph.PreviewLimit),
			OutputPreview: graph.Preview(n.OutputData, graph.PreviewLimit),
		})
	}
	return detail, nil
}

// Graph returns the laid-out graph of one execution, fitted to viewport.
func (s *DashboardService) Graph(ctx context.Context, creds client.Credentials, id string, viewport float64) (*GraphView, error) {
	c := s.client(creds)
	e, err := c.GetExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	wf, err := c.GetWorkflow(ctx, e.WorkflowID.String())
	if err != nil {
		return nil, err
	}
	return s.graphView(creds, wf, e, viewport), nil
}

func (s *DashboardService) graphView(creds client.Credentials, wf *model.Workflow, e *model.Execution, viewport float64) *GraphView {
	build := func() *graph.Layout { return graph.BuildForExecution(wf, e) }
	var layout *graph.Layout
	if execution.StatusOf(e) == execution.Running {
		// run data of a running execution still grows
		layout = build()
	} else {
		var hit bool
		key := cache.LayoutKey(creds.BaseURL, wf.Revision(), e.ID.String())
		layout, hit = s.layouts.GetOrBuild(key, build)
		s.metrics.RecordLayoutCache(hit)
	}
	scale := layout.Fit(viewport)
	return &GraphView{
		Layout:       layout,
		Scale:        scale,
		MobileScale:  graph.FitScale(layout.Width, viewport, graph.MobileMaxScale, graph.MinScale),
		ZoomInScale:  graph.ZoomIn(scale),
		ZoomOutScale: graph.ZoomOut(scale),
		MinScale:     graph.MinScale,
		MaxScale:     graph.MaxZoom,
	}
}

type InsightsQuery struct {
	Days       int
	WorkflowID string
	// Refresh bypasses a stored snapshot.
	Refresh bool
}

type InsightsResult struct {
	insights.Report
	WorkflowID string    `json:"workflowId,omitempty"`
	Source     string    `json:"source"`
	Loaded     int       `json:"loaded"`
	SnapshotAt time.Time `json:"snapshotAt"`
	// DailyPeak is the tallest daily bar, at least 1.
	DailyPeak  int       `json:"maxDaily"`
}

// Insights aggregates the execution history and summarizes the last q.Days
// days of it. A complete aggregation is kept as a snapshot for a short time
// so switching between windows does not page the whole history again.
func (s *DashboardService) Insights(ctx context.Context, creds client.Credentials, q InsightsQuery) (*InsightsResult, error) {
	key := persistence.SnapshotKey(creds.BaseURL, creds.APIKey, q.WorkflowID)
	source := SourceSnapshot
	var snap *persistence.Snapshot
	if !q.Refresh {
		var err error
		snap, err = s.snapshots.Get(ctx, key)
		if err != nil {
			logger.Warn("snapshot read failed, aggregating from server", zap.Error(err))
			snap = nil
		}
	}
	if snap == nil {
		source = SourceUpstream
		execs, err := s.aggregate(ctx, creds, q.WorkflowID)
		if err != nil {
			analytics.RecordAggregationFailure(creds.BaseURL, q.WorkflowID, err.Error())
			return nil, err
		}
		snap = persistence.NewSnapshot(q.WorkflowID, execs, s.now())
		if err := s.snapshots.Save(ctx, key, snap, s.snapshotTTL); err != nil {
			logger.Warn("snapshot save failed", zap.Error(err))
		}
	}
	s.metrics.RecordAggregation(source)
	report := insights.Compute(snap.Executions, q.Days, s.now())
	analytics.RecordInsights(creds.BaseURL, q.WorkflowID, source, report)
	return &InsightsResult{
		Report:     report,
		WorkflowID: q.WorkflowID,
		Source:     source,
		Loaded:     len(snap.Executions),
		SnapshotAt: snap.SavedAt,
		DailyPeak:  report.MaxDaily(),
	}, nil
}

func (s *DashboardService) aggregate(ctx context.Context, creds client.Credentials, workflowID string) ([]model.Execution, error) {
	prev := 0
	progress := func(loaded int) {
		s.metrics.RecordPage(loaded - prev)
		prev = loaded
		logger.Debug("loading executions", zap.String("workflowId", workflowID), zap.Int("loaded", loaded))
	}
	start := s.now()
	execs, err := aggregator.New(s.client(creds)).FetchAll(ctx, workflowID, progress)
	if err != nil {
		return nil, err
	}
	logger.Info("executions aggregated",
		zap.String("server", creds.BaseURL), zap.String("workflowId", workflowID),
		zap.Int("loaded", len(execs)), zap.Duration("elapsed", s.now().Sub(start)))
	return execs, nil
}

// Warm refreshes the all-workflows snapshot for creds.
func (s *DashboardService) Warm(ctx context.Context, creds client.Credentials, days int) error {
	res, err := s.Insights(ctx, creds, InsightsQuery{Days: days, Refresh: true})
	if err != nil {
		logger.Error("insights warm-up failed", zap.String("server", creds.BaseURL), zap.Error(err))
		return err
	}
	logger.Info("insights warmed up", zap.String("server", creds.BaseURL), zap.Int("loaded", res.Loaded), zap.Int("total", res.Total))
	return nil
}
