package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Authorization decisions. Each maps to a distinct, stable client-facing code.
	CodeUnauthenticated    Code = "unauthenticated"     // no valid principal could be resolved
	CodeInvalidCredentials Code = "invalid_credentials" // login failed; never says which part was wrong
	CodeCrossTenantDenied  Code = "cross_tenant_denied" // principal and resource belong to different tenants
	CodePermissionDenied   Code = "permission_denied"   // missing capability or plan feature
	CodePlanLimitExceeded  Code = "plan_limit_exceeded" // usage counter would exceed the plan limit
	CodeRateLimited        Code = "rate_limited"
)

// Denial reasons attached to PermissionDenied and PlanLimitExceeded.
const (
	ReasonMissingPermission = "missing_permission"
	ReasonFeatureNotInPlan  = "feature_not_in_plan"
	ReasonTenantInactive    = "tenant_inactive"
	ReasonTenantRequired    = "tenant_required"
	ReasonLimitReached      = "limit_reached"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Reason and Limit refine authorization denials. Empty otherwise.
	Reason string
	Limit  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewDenied creates an authorization denial carrying a machine-readable reason.
func NewDenied(code Code, reason, msg string) error {
	return &Error{Code: code, Message: msg, Reason: reason}
}

// NewLimitExceeded creates a PlanLimitExceeded error for the given limit key.
func NewLimitExceeded(limit, msg string) error {
	return &Error{Code: CodePlanLimitExceeded, Message: msg, Reason: ReasonLimitReached, Limit: limit}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{Code: existing.Code, Message: msg, Err: err, Reason: existing.Reason, Limit: existing.Limit}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// ReasonOf returns the denial reason of a domain error, or "".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
