package schemas

import "errors"

// -- Error Taxonomy --

var (
	// ErrScopeNotFound is returned when the requested group filter does not
	// match any group on the update server. The run aborts before collection.
	ErrScopeNotFound = errors.New("scope not found")

	// ErrSourceUnavailable is returned when the update server cannot be
	// reached, or a call fails partway through collection. No partial report
	// is written.
	ErrSourceUnavailable = errors.New("update source unavailable")

	// ErrRender signals a violated renderer or converter invariant. It
	// indicates a programming defect rather than bad input.
	ErrRender = errors.New("render error")

	// ErrDelivery wraps a failed webhook post or mail send. Written report
	// files are never rolled back because of it.
	ErrDelivery = errors.New("delivery failed")
)
