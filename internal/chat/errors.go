package chat

import (
	"context"
	"errors"
	"net"

	"github.com/bz888/oblaka/internal/api"
)

// DescribeError picks the most specific message for a failed send: the
// proxy's error and details, then a bare detail, then the transport failure,
// then the raw error text.
func DescribeError(err error) string {
	if err == nil {
		return "Error: unknown error"
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return "Error: " + describeBody(apiErr.Body)
	}

	if timedOut(err) {
		return "Error: the server did not respond in time"
	}
	if api.IsUnreachable(err) {
		return "Cannot reach the server"
	}
	if msg := err.Error(); msg != "" {
		return "Error: " + msg
	}
	return "Server connection error"
}

func describeBody(body api.ErrorBody) string {
	switch {
	case body.Error != "" && body.Details != "":
		return body.Error + ": " + body.Details
	case body.Error != "":
		return body.Error
	case body.Detail != "":
		return body.Detail
	default:
		return "unknown error"
	}
}

func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
