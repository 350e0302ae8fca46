package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrUnknownSegment is returned when a job names a segment the registry lacks.
var ErrUnknownSegment = errors.New("scraper: unknown segment")

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a missing resource (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the provider rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrGateway indicates a 502, 503 or 504 from the provider edge.
type ErrGateway struct {
	Err error
}

func (e ErrGateway) Error() string {
	return fmt.Errorf("gateway: %w", e.Err).Error()
}

func (e ErrGateway) Unwrap() error {
	return e.Err
}

// ErrStatus is any other non-2xx response.
type ErrStatus struct {
	Code int
	Body string
}

func (e ErrStatus) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// ErrDecode indicates a structured response that was not valid JSON.
type ErrDecode struct {
	Err error
}

func (e ErrDecode) Error() string {
	return fmt.Errorf("decode: %w", e.Err).Error()
}

func (e ErrDecode) Unwrap() error {
	return e.Err
}

// ErrExhausted is returned once every attempt allowed by the retry policy
// has failed. Err is the last attempt's error.
type ErrExhausted struct {
	URL      string
	Attempts int
	Err      error
}

func (e ErrExhausted) Error() string {
	return fmt.Sprintf("fetch %s: gave up after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e ErrExhausted) Unwrap() error {
	return e.Err
}

// transientStatus reports whether the status is one the provider returns
// under load.
func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusForbidden,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var gateway ErrGateway
	if errors.As(err, &gateway) {
		return "gateway"
	}
	var status ErrStatus
	if errors.As(err, &status) {
		return "status"
	}
	var decode ErrDecode
	if errors.As(err, &decode) {
		return "decode"
	}
	return "other"
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = ErrStatus{Code: statusCode}
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return ErrGateway{Err: wrapped}
		}
		return wrapped
	}

	return err
}
