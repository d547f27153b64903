package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "tenantgate/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// Authorization denials carry their reason (and limit key) so clients can
// tell "upgrade your plan" apart from "ask an admin".
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" && domainErr.Code != dErrors.CodeInternal {
			response["error_description"] = domainErr.Message
		}
		if domainErr.Reason != "" {
			response["reason"] = domainErr.Reason
		}
		if domainErr.Limit != "" {
			response["limit"] = domainErr.Limit
		}
		if domainErr.Code == dErrors.CodeUnauthenticated || domainErr.Code == dErrors.CodeInvalidCredentials {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tenantgate"`)
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthenticated, dErrors.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case dErrors.CodeCrossTenantDenied, dErrors.CodePermissionDenied, dErrors.CodePlanLimitExceeded:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field of the JSON body.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthenticated:
		return "unauthenticated"
	case dErrors.CodeInvalidCredentials:
		return "invalid_credentials"
	case dErrors.CodeCrossTenantDenied:
		return "cross_tenant_denied"
	case dErrors.CodePermissionDenied:
		return "permission_denied"
	case dErrors.CodePlanLimitExceeded:
		return "plan_limit_exceeded"
	case dErrors.CodeRateLimited:
		return "rate_limited"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
