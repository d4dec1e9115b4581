package calendar

import "errors"

// ErrAccessDenied indicates the calendar source rejected our credentials
// or the access probe timed out. Fatal at startup; there is nothing
// useful to render without calendar access.
var ErrAccessDenied = errors.New("calendar access denied")

// ErrStoreUnavailable indicates the calendar source could not be reached.
// Non-fatal: the previous snapshot keeps rendering and the next refresh
// is the recovery path.
var ErrStoreUnavailable = errors.New("calendar store unavailable")
