package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

/* Kind classifies every failure surfaced by the SDK
 * Callers match broadly with errors.As(*Error) or narrowly with errors.Is(err, ErrNotFound)
 */
type Kind int

const (
	Unknown Kind = iota
	BadRequest
	Authentication
	Forbidden
	NotFound
	PayloadTooLarge
	RateLimit
	Internal
	Connection
	SignatureVerification
)

// String returns the server-style code for the kind
func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case Authentication:
		return "authentication_error"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case PayloadTooLarge:
		return "payload_too_large"
	case RateLimit:
		return "rate_limit_exceeded"
	case Internal:
		return "internal_error"
	case Connection:
		return "connection_error"
	case SignatureVerification:
		return "signature_verification_error"
	default:
		return "unknown_error"
	}
}

// KindForStatus maps an HTTP status code to an error kind
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return BadRequest
	case status == http.StatusUnauthorized:
		return Authentication
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusRequestEntityTooLarge:
		return PayloadTooLarge
	case status == http.StatusTooManyRequests:
		return RateLimit
	case status >= 500:
		return Internal
	default:
		return Unknown
	}
}

// Error is the common base of all API-facing errors
type Error struct {
	Kind Kind
	// StatusCode is zero for local failures (connection, signature verification)
	StatusCode int
	// Code is the server-supplied error code, or Kind.String() when absent
	Code    string
	Message string
	Header  http.Header
	Err     error

	sentinel bool
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("posthook: %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("posthook: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against a sentinel of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.sentinel && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons
var (
	ErrBadRequest            = &Error{Kind: BadRequest, Code: BadRequest.String(), sentinel: true}
	ErrAuthentication        = &Error{Kind: Authentication, Code: Authentication.String(), sentinel: true}
	ErrForbidden             = &Error{Kind: Forbidden, Code: Forbidden.String(), sentinel: true}
	ErrNotFound              = &Error{Kind: NotFound, Code: NotFound.String(), sentinel: true}
	ErrPayloadTooLarge       = &Error{Kind: PayloadTooLarge, Code: PayloadTooLarge.String(), sentinel: true}
	ErrRateLimit             = &Error{Kind: RateLimit, Code: RateLimit.String(), sentinel: true}
	ErrInternal              = &Error{Kind: Internal, Code: Internal.String(), sentinel: true}
	ErrConnection            = &Error{Kind: Connection, Code: Connection.String(), sentinel: true}
	ErrSignatureVerification = &Error{Kind: SignatureVerification, Code: SignatureVerification.String(), sentinel: true}
)

// FromResponse builds the error for a non-2xx response
func FromResponse(status int, message, code string, header http.Header) *Error {
	kind := KindForStatus(status)
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	if code == "" {
		code = kind.String()
	}
	return &Error{
		Kind:       kind,
		StatusCode: status,
		Code:       code,
		Message:    message,
		Header:     header,
	}
}

// NewConnection wraps a transport-level failure
func NewConnection(message string, err error) *Error {
	return &Error{
		Kind:    Connection,
		Code:    Connection.String(),
		Message: message,
		Err:     err,
	}
}

// NewAuthentication is used for local credential problems, e.g. a missing API key
func NewAuthentication(message string) *Error {
	return &Error{
		Kind:    Authentication,
		Code:    Authentication.String(),
		Message: message,
	}
}

// NewSignatureVerification never carries the failing check, only a fixed message
func NewSignatureVerification() *Error {
	return &Error{
		Kind:    SignatureVerification,
		Code:    SignatureVerification.String(),
		Message: "signature verification failed",
	}
}

// KindOf returns the kind of err, or Unknown when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func IsBadRequest(err error) bool      { return errors.Is(err, ErrBadRequest) }
func IsAuthentication(err error) bool  { return errors.Is(err, ErrAuthentication) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsPayloadTooLarge(err error) bool { return errors.Is(err, ErrPayloadTooLarge) }
func IsRateLimit(err error) bool       { return errors.Is(err, ErrRateLimit) }
func IsInternal(err error) bool        { return errors.Is(err, ErrInternal) }
func IsConnection(err error) bool      { return errors.Is(err, ErrConnection) }

func IsSignatureVerification(err error) bool {
	return errors.Is(err, ErrSignatureVerification)
}
