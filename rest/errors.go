package rest

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/client"
	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/persistence"
)

// statusFor maps a service error to the status returned to the browser.
// Upstream answers keep their status so the UI can tell a bad key from a
// missing execution.
func statusFor(err error) int {
	var upstream client.UpstreamError
	var transport client.TransportError
	var storage persistence.StorageLayerError
	switch {
	case errors.As(err, &upstream):
		return upstream.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transport):
		return http.StatusBadGateway
	case errors.As(err, &storage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()
	var transport client.TransportError
	if errors.As(err, &transport) && !errors.Is(err, context.DeadlineExceeded) {
		message = client.ConnectionMessage(err)
	}
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}
	respondWithError(w, code, message)
}
