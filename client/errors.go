package client

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError means the server could not be reached at all: DNS, TCP,
// TLS or a browser-side CORS rejection surfaced through the relay.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("cannot connect to server: %v", e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError is a 4xx or 5xx answer from the n8n server.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Error: %d", e.StatusCode)
}

// ConnectionMessage renders a failed connection check for the login form.
func ConnectionMessage(err error) string {
	var upstream UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.StatusCode {
		case http.StatusUnauthorized:
			return "Invalid API key"
		case http.StatusForbidden:
			return "Permission denied. Check your API key."
		case http.StatusNotFound:
			return "Endpoint not found. Check the URL"
		default:
			return fmt.Sprintf("Server error: %d", upstream.StatusCode)
		}
	}
	var transport TransportError
	if errors.As(err, &transport) {
		return "Cannot connect to the server. Check the URL or CORS."
	}
	return err.Error()
}
