package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/handiism/feed-downloader/internal/http"
)

// TransientError wraps a failure worth retrying: connection errors, timeouts,
// truncated bodies and non-2xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError wraps a failure that no retry can fix: malformed or
// unsupported URLs and unwritable destinations.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// classify wraps err into the retry taxonomy. Already classified errors and
// context cancellation are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsPermanent(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var fileErr *http.FileError
	if errors.As(err, &fileErr) {
		return &PermanentError{Err: err}
	}

	// Transport errors, timeouts, short bodies and *http.StatusError.
	return &TransientError{Err: err}
}

// validateURL rejects URLs that cannot be fetched over HTTP at all.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("malformed URL %q: %w", raw, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &PermanentError{Err: fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, raw)}
	}
	if u.Host == "" {
		return &PermanentError{Err: fmt.Errorf("URL %q has no host", raw)}
	}
	return nil
}
