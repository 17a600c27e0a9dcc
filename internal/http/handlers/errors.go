// Package handlers implements the HTTP endpoints of the public API.
package handlers

// Stable machine-readable codes carried in every error envelope. Clients
// branch on these, so renaming one is a breaking change.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Lifecycle-specific codes. invalid_state marks an operation the
	// request/session state machine forbids; schedule_conflict marks a slot
	// collision; no_free_slot means the auto-scheduler search exhausted.
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeScheduleConflict = "schedule_conflict"
	ErrCodeNoFreeSlot       = "no_free_slot"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
