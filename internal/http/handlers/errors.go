package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yomu-app/backend/internal/sources"
)

// statusForSourceError maps a source-layer failure onto an HTTP status:
// upstream 404s stay 404, timeouts become 504, other upstream statuses
// become 502, malformed caller input becomes 400.
func statusForSourceError(err error) int {
	var statusErr *sources.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "timeout") || strings.Contains(message, "deadline") || strings.Contains(message, "abort"):
		return http.StatusGatewayTimeout
	case strings.Contains(message, "must be formatted") || strings.Contains(message, "is required"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
