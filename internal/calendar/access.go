package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultAccessTimeout bounds the startup access probe.
const DefaultAccessTimeout = 30 * time.Second

// RequestAccess probes a source once at startup to verify we are allowed
// to read from it. The probe runs asynchronously and delivers its result
// over a single-use channel; if nothing arrives within the timeout the
// request is treated as denied.
func RequestAccess(ctx context.Context, src Source, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultAccessTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		start, end := FetchWindow(time.Now())
		_, err := src.Fetch(probeCtx, start, end)
		resultCh <- err
	}()

	select {
	case err := <-resultCh:
		if err == nil {
			return nil
		}
		if isAuthError(err) {
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	case <-probeCtx.Done():
		slog.Warn("access probe timed out, treating as denied", "source", src.Name(), "timeout", timeout)
		return ErrAccessDenied
	}
}

// statusError carries an HTTP status from a source fetch.
type statusError struct {
	status int
	op     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.op, e.status)
}

// isAuthError reports whether a fetch failure means our credentials were
// rejected rather than the store being unreachable.
func isAuthError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusUnauthorized || se.status == http.StatusForbidden
	}
	return false
}
