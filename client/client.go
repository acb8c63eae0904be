// Package client talks to the public REST API of an n8n server, either
// directly with the API key in a header or through the same-origin relay
// with the credentials carried as query parameters.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/model"
)

const (
	APIKeyHeader = "X-N8N-API-KEY"
	APIPrefix    = "/api/v1"
	RelayPrefix  = "/api/proxy/"

	// RelayURLParam and RelayKeyParam carry the credentials to the relay,
	// which removes every parameter starting with "_" before forwarding.
	RelayURLParam = "_n8nUrl"
	RelayKeyParam = "_apiKey"

	MaxExecutionLimit = 250
)

// Credentials identify one n8n server and the API key used against it. A
// value is built once per session and handed to every call.
type Credentials struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

func NewCredentials(baseURL, apiKey string) Credentials {
	return Credentials{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  strings.TrimSpace(apiKey),
	}
}

func (c Credentials) Valid() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Observer is told about every upstream call.
type Observer interface {
	ObserveUpstream(method string, status int, elapsed time.Duration)
}

type Client struct {
	creds      Credentials
	relayURL   string
	httpClient *http.Client
	observer   Observer
}

type Option func(*Client)

// WithRelay routes every call through the relay at relayURL instead of
// calling the server directly.
func WithRelay(relayURL string) Option {
	return func(c *Client) {
		c.relayURL = strings.TrimRight(relayURL, "/")
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) url(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.relayURL == "" {
		target := c.creds.BaseURL + APIPrefix + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		return target
	}
	query.Set(RelayURLParam, c.creds.BaseURL)
	query.Set(RelayKeyParam, c.creds.APIKey)
	return c.relayURL + RelayPrefix + strings.TrimPrefix(path, "/") + "?" + query.Encode()
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.relayURL == "" {
		req.Header.Set(APIKeyHeader, c.creds.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		logger.Error("n8n request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, TransportError{Err: err}
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode >= 400 {
		logger.Warn("n8n request rejected", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(respBody)}
	}
	return respBody, nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(method, status, time.Since(start))
	}
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func decode[T any](body []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// CheckConnection validates the credentials with the cheapest listing the
// API offers.
func (c *Client) CheckConnection(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/workflows", url.Values{"limit": {"1"}}, nil)
	return err
}

// ListWorkflows returns all workflows, or only active or inactive ones when
// active is set.
func (c *Client) ListWorkflows(ctx context.Context, active *bool) ([]model.Workflow, error) {
	query := url.Values{}
	if active != nil {
		query.Set("active", strconv.FormatBool(*active))
	}
	respBody, err := c.doRequest(ctx, http.MethodGet, "/workflows", query, nil)
	if err != nil {
		return nil, err
	}
	// older servers answer with a bare array instead of {data: [...]}
	if trimmed := bytes.TrimSpace(respBody); len(trimmed) > 0 && trimmed[0] == '[' {
		list, err := decode[[]model.Workflow](trimmed)
		if err != nil {
			return nil, err
		}
		return *list, nil
	}
	list, err := decode[model.WorkflowList](respBody)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/workflows/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.Workflow](respBody)
}

func (c *Client) ActivateWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	return c.setActive(ctx, id, "activate")
}

func (c *Client) DeactivateWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	return c.setActive(ctx, id, "deactivate")
}

// ToggleWorkflow moves a workflow to the requested active state.
func (c *Client) ToggleWorkflow(ctx context.Context, id string, active bool) (*model.Workflow, error) {
	if active {
		return c.ActivateWorkflow(ctx, id)
	}
	return c.DeactivateWorkflow(ctx, id)
}

func (c *Client) setActive(ctx context.Context, id, action string) (*model.Workflow, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/workflows/"+url.PathEscape(id)+"/"+action, nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.Workflow](respBody)
}

type ExecutionQuery struct {
	WorkflowID string
	Cursor     string
	Limit      int
}

// ListExecutions fetches one page of executions. Limit is capped at the
// server maximum of 250.
func (c *Client) ListExecutions(ctx context.Context, q ExecutionQuery) (*model.ExecutionPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	limit = min(limit, MaxExecutionLimit)
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if q.WorkflowID != "" {
		query.Set("workflowId", q.WorkflowID)
	}
	if q.Cursor != "" {
		query.Set("cursor", q.Cursor)
	}
	respBody, err := c.doRequest(ctx, http.MethodGet, "/executions", query, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.ExecutionPage](respBody)
}

// ExecutionPage satisfies aggregator.PageFetcher.
func (c *Client) ExecutionPage(ctx context.Context, workflowID string, cursor string, limit int) (*model.ExecutionPage, error) {
	return c.ListExecutions(ctx, ExecutionQuery{WorkflowID: workflowID, Cursor: cursor, Limit: limit})
}

// GetExecution fetches one execution including the per-node run data.
func (c *Client) GetExecution(ctx context.Context, id string) (*model.Execution, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/executions/"+url.PathEscape(id), url.Values{"includeData": {"true"}}, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.Execution](respBody)
}
