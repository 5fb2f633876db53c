package domain

import "errors"

// Error kinds shared across the pipeline. Callers match them with
// errors.Is; adapters wrap them with context via fmt.Errorf("%w").
var (
	// ErrTenantListUnavailable aborts a whole run: with no tenant list
	// there is nothing to isolate failures between.
	ErrTenantListUnavailable = errors.New("tenant list unavailable")

	// ErrDuplicatePeriod signals the repository uniqueness backstop
	// fired on insert: another process already completed this
	// (tenant, period). Treated as skipped, not failed.
	ErrDuplicatePeriod = errors.New("analysis summary already exists for period")

	// ErrServiceUnavailable covers network-level classification failures.
	ErrServiceUnavailable = errors.New("classification service unavailable")

	// ErrMalformedResponse covers classification replies that cannot be
	// mapped onto the expected shape (length or id mismatch, unknown label).
	ErrMalformedResponse = errors.New("malformed classification response")

	// ErrInvalidInput covers classification requests the service would
	// reject: empty batch, empty text, oversized text.
	ErrInvalidInput = errors.New("invalid classification input")
)
