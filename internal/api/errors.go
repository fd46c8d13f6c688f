package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// APIError is returned when the proxy answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       ErrorBody
}

func (e *APIError) Error() string {
	switch {
	case e.Body.Error != "" && e.Body.Details != "":
		return e.Body.Error + ": " + e.Body.Details
	case e.Body.Error != "":
		return e.Body.Error
	case e.Body.Detail != "":
		return e.Body.Detail
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// IsUnreachable reports whether err means the request left the process but
// no response came back: refused or reset connections, DNS failures and
// timeouts.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
