// errors/admission_errors.go
package errors

import (
	"fmt"
	"net/http"
)

// Kind discriminates the fixed set of admission rejection reasons. Every
// pipeline stage reports failure as one of these; no stage panics on an
// expected rejection path.
type Kind int

const (
	KindInvalidToken Kind = iota
	KindRevokedToken
	KindUnauthorizedRole
	KindUnauthorizedResource
	KindResourceNotFound
	KindQuotaExceeded
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidToken:
		return "invalid token"
	case KindRevokedToken:
		return "revoked token"
	case KindUnauthorizedRole:
		return "unauthorized role"
	case KindUnauthorizedResource:
		return "unauthorized resource"
	case KindResourceNotFound:
		return "resource not found"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindUpstreamUnavailable:
		return "upstream unavailable"
	}
	return "unknown"
}

// URN returns the response type identifier exposed to API callers.
func (k Kind) URN() string {
	switch k {
	case KindInvalidToken:
		return "urn:dx:rs:invalidAuthorizationToken"
	case KindRevokedToken:
		return "urn:dx:rs:revokedAuthorizationToken"
	case KindUnauthorizedRole:
		return "urn:dx:rs:invalidRole"
	case KindUnauthorizedResource:
		return "urn:dx:rs:unauthorizedResource"
	case KindResourceNotFound:
		return "urn:dx:rs:resourceNotFound"
	case KindQuotaExceeded:
		return "urn:dx:rs:limitExceeded"
	case KindUpstreamUnavailable:
		return "urn:dx:rs:backendError"
	}
	return "urn:dx:rs:internalError"
}

// HTTPStatus is the fixed status class each kind maps to at the boundary
// layer.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidToken, KindRevokedToken:
		return http.StatusUnauthorized
	case KindUnauthorizedRole, KindUnauthorizedResource:
		return http.StatusForbidden
	case KindResourceNotFound:
		return http.StatusNotFound
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// AdmissionError is the discriminated rejection produced by a pipeline stage.
type AdmissionError struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *AdmissionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *AdmissionError) Unwrap() error {
	return e.cause
}

func newError(kind Kind, detail string, cause error) *AdmissionError {
	return &AdmissionError{Kind: kind, Detail: detail, cause: cause}
}

func InvalidToken(detail string, cause error) *AdmissionError {
	return newError(KindInvalidToken, detail, cause)
}

func RevokedToken(detail string) *AdmissionError {
	return newError(KindRevokedToken, detail, nil)
}

func UnauthorizedRole(detail string) *AdmissionError {
	return newError(KindUnauthorizedRole, detail, nil)
}

func UnauthorizedResource(detail string) *AdmissionError {
	return newError(KindUnauthorizedResource, detail, nil)
}

func ResourceNotFound(detail string) *AdmissionError {
	return newError(KindResourceNotFound, detail, nil)
}

func QuotaExceeded(detail string) *AdmissionError {
	return newError(KindQuotaExceeded, detail, nil)
}

func UpstreamUnavailable(detail string, cause error) *AdmissionError {
	return newError(KindUpstreamUnavailable, detail, cause)
}
