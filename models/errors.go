package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, related to default API status codes
var (
	// BadParameterError is rendered with the http status code 400
	BadParameterError = errors.New("bad parameter")

	// UnAuthorizedError is rendered with the http status code 401
	UnAuthorizedError = errors.New("unauthorized")

	// ForbiddenError is rendered with the http status code 403
	ForbiddenError = errors.New("forbidden")

	// NotFoundError is rendered with the http status code 404
	NotFoundError = errors.New("not found")

	// ConflictError is rendered with the http status code 409
	ConflictError = errors.New("duplicate value")
)

// DB related errors
var ErrIgnoreRollBackError = errors.New("ignore rollback error")

// Pipeline errors
var (
	// ErrValidationPolicy wraps a failed policy lookup. The permission check
	// is retried and eventually dead-lettered; it is never resolved silently.
	ErrValidationPolicy = errors.New("validation policy resolution failed")

	// ErrPermissionDenied is terminal: the event is recorded as rejected and
	// never retried.
	ErrPermissionDenied = errors.Wrap(ForbiddenError, "permission denied by policy")

	// ErrProposalAlreadyResolved is returned on a second resolution attempt.
	ErrProposalAlreadyResolved = errors.Wrap(ConflictError, "proposal already resolved")

	// ErrMutationConflict marks a stale or conflicting projection write. The
	// worker records a .failed event instead of retrying forever.
	ErrMutationConflict = errors.Wrap(ConflictError, "projection mutation conflict")

	// ErrDeliveryFailure marks an unreachable or non-2xx webhook endpoint.
	ErrDeliveryFailure = errors.New("webhook delivery failure")
)
