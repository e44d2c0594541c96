package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrSessionClosed    = errors.New("session closed")
	ErrMissingNextLink  = errors.New("next page link missing before last page")
	ErrPaginationLoop   = errors.New("next page link points to a visited page")
	ErrListingNotFound  = errors.New("listing container not found")
	ErrSequenceConsumed = errors.New("page sequence already consumed")
	ErrMaxPagesReached  = errors.New("page limit reached before last page")
)

// NavigationError is fatal: a page could not be loaded or the next page
// could not be located while more pages were expected.
type NavigationError struct {
	Page int
	URL  string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failure on page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ExtractionError is fatal: a page does not have the expected listing shape.
type ExtractionError struct {
	Page int
	URL  string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failure on page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FailureKind names the fatal failure class of err, or "" if it has none.
func FailureKind(err error) string {
	var nav *NavigationError
	if errors.As(err, &nav) {
		return "navigation"
	}
	var ext *ExtractionError
	if errors.As(err, &ext) {
		return "extraction"
	}
	return ""
}

// FailurePage returns the page number carried by a fatal failure.
func FailurePage(err error) (int, string, bool) {
	var nav *NavigationError
	if errors.As(err, &nav) {
		return nav.Page, nav.URL, true
	}
	var ext *ExtractionError
	if errors.As(err, &ext) {
		return ext.Page, ext.URL, true
	}
	return 0, "", false
}

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

// ErrRateLimited indicates the target rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
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
	if errors.Is(err, ErrMissingNextLink) {
		return "missing_next"
	}
	if errors.Is(err, ErrPaginationLoop) {
		return "pagination_loop"
	}
	if errors.Is(err, ErrMaxPagesReached) {
		return "max_pages"
	}
	if errors.Is(err, ErrListingNotFound) {
		return "listing_not_found"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
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
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		if err == nil {
			return wrapped
		}
	}

	return err
}
