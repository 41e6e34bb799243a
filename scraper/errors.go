package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

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

// ErrDownload indicates an image request that did not answer 200.
type ErrDownload struct {
	URL        string
	StatusCode int
}

func (e ErrDownload) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
}

// ErrStorage wraps a failure of the persistence sink.
type ErrStorage struct {
	Err error
}

func (e ErrStorage) Error() string {
	return fmt.Errorf("storage: %w", e.Err).Error()
}

func (e ErrStorage) Unwrap() error {
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
	var download ErrDownload
	if errors.As(err, &download) {
		return "download"
	}
	var storage ErrStorage
	if errors.As(err, &storage) {
		return "storage"
	}
	return "other"
}

// classifyError maps transport failures onto ErrTimeout and ErrConnection.
// Anything else, including malformed URLs, is returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var timeout ErrTimeout
	var conn ErrConnection
	if errors.As(err, &timeout) || errors.As(err, &conn) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return err
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return ErrConnection{Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrConnection{Err: err}
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return ErrConnection{Err: err}
	case urlErr != nil:
		// Remaining url.Errors come from the HTTP client's transport.
		return ErrConnection{Err: err}
	}
	return err
}

// isTransient reports whether a classified error is worth another attempt.
func isTransient(err error) bool {
	var timeout ErrTimeout
	var conn ErrConnection
	return errors.As(err, &timeout) || errors.As(err, &conn)
}
