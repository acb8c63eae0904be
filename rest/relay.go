package rest

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/client"
	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/metrics"
)

const (
	RelayPrefix = client.RelayPrefix

	allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"

	// MaxRelayBody bounds the request body read before forwarding.
	MaxRelayBody = 10 << 20
)

// Relay forwards browser calls under /api/proxy/ to the n8n server named in
// the _n8nUrl parameter, moving the _apiKey parameter into the API key
// header. Responses pass through unchanged apart from the CORS header.
type Relay struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewRelay(timeout time.Duration, m *metrics.Metrics) *Relay {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Relay{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.WriteHeader(http.StatusOK)
		return
	}

	query := r.URL.Query()
	n8nURL := query.Get(client.RelayURLParam)
	apiKey := query.Get(client.RelayKeyParam)
	if n8nURL == "" || apiKey == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{
			"error":       "Missing n8n URL or API Key",
			"receivedUrl": yesNo(n8nURL != ""),
			"receivedKey": yesNo(apiKey != ""),
		})
		return
	}

	target := n8nURL + client.APIPrefix + "/" + relayPath(r.URL) + forwardedQuery(r.URL.RawQuery)

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRelayBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(data) > 0 {
			body = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set(client.APIKeyHeader, apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := rl.httpClient.Do(req)
	if err != nil {
		rl.metrics.RecordRelay(r.Method, 0, time.Since(start))
		logger.Error("relay request failed", zap.String("method", r.Method), zap.String("server", n8nURL), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	rl.metrics.RecordRelay(r.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(data)
}

// relayPath is the escaped request path after the relay prefix.
func relayPath(u *url.URL) string {
	p := u.EscapedPath()
	if i := strings.Index(p, RelayPrefix); i >= 0 {
		return p[i+len(RelayPrefix):]
	}
	return ""
}

// forwardedQuery drops every parameter whose name starts with "_" and keeps
// the others verbatim and in order.
func forwardedQuery(raw string) string {
	if raw == "" {
		return ""
	}
	kept := make([]string, 0)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if name, err := url.QueryUnescape(key); err == nil {
			key = name
		}
		if strings.HasPrefix(key, "_") {
			continue
		}
		kept = append(kept, pair)
	}
	if len(kept) == 0 {
		return ""
	}
	return "?" + strings.Join(kept, "&")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
