// Package apierr defines the closed error taxonomy of the dispatch engine
// (spec §4.1). Every public client operation returns either a typed success
// value or exactly one *Error; there is no untyped error path out of the
// core.
//
// The shape — a single struct carrying a kind discriminant plus kind-specific
// payload fields, with a classifier for "is this worth a caller-side retry"
// — follows the vendored lokex client's apierr.APIError found in the
// lokalise-lokalise-push-action example (internal/apierr/error.go,
// retryable.go): a typed API error with Status/Code/Message and an
// IsRetryable predicate.
package apierr

import "fmt"

// Kind enumerates the closed set of failure kinds (spec §4.1).
type Kind int

const (
	// SendTimeout: the caller's blocking budget elapsed before the request
	// reached the wire, or the advisory delay for the next send exceeds the
	// remaining blocking budget.
	SendTimeout Kind = iota
	// KeyNotRunning: service code 401.
	KeyNotRunning
	// InsufficientRequests: service code 402 (also arms the daily back-off).
	InsufficientRequests
	// InsufficientBits: service code 403.
	InsufficientBits
	// ServiceError: any other recognized service code.
	ServiceError
	// ProtocolError: a JSON-RPC-level error outside the recognized set, or a
	// malformed/undecodable response body.
	ProtocolError
	// BadHTTPResponse: the transport returned a non-success HTTP status.
	BadHTTPResponse
	// MalformedURL: the transport could not construct a request for the
	// configured endpoint.
	MalformedURL
	// IO: a transport-layer I/O failure (dial, read, TLS, etc.).
	IO
)

func (k Kind) String() string {
	switch k {
	case SendTimeout:
		return "SendTimeout"
	case KeyNotRunning:
		return "KeyNotRunning"
	case InsufficientRequests:
		return "InsufficientRequests"
	case InsufficientBits:
		return "InsufficientBits"
	case ServiceError:
		return "ServiceError"
	case ProtocolError:
		return "ProtocolError"
	case BadHTTPResponse:
		return "BadHTTPResponse"
	case MalformedURL:
		return "MalformedURL"
	case IO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by every public operation.
type Error struct {
	Kind    Kind
	Message string

	// Code is the originating service numeric code; zero when not
	// applicable (SendTimeout, BadHTTPResponse, MalformedURL, IO).
	Code int

	// BitsRemaining is populated for InsufficientBits (spec §4.1: "carries
	// current bits-remaining snapshot"). nil when unknown.
	BitsRemaining *int64

	// Status/Reason are populated for BadHTTPResponse.
	Status int
	Reason string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ServiceError, KeyNotRunning, InsufficientBits, InsufficientRequests:
		return fmt.Sprintf("%s: %s (code %d)", e.Kind, e.Message, e.Code)
	case BadHTTPResponse:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// New constructs a plain *Error of the given kind with no extra payload.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromServiceCode maps a JSON-RPC `error.code` to the taxonomy per spec
// §4.3.3. bitsRemaining is only consulted when code == 403.
func FromServiceCode(code int, message string, bitsRemaining *int64) *Error {
	switch code {
	case 401:
		return &Error{Kind: KeyNotRunning, Message: message, Code: code}
	case 402:
		return &Error{Kind: InsufficientRequests, Message: message, Code: code}
	case 403:
		return &Error{Kind: InsufficientBits, Message: message, Code: code, BitsRemaining: bitsRemaining}
	default:
		if recognizedServiceCode(code) {
			return &Error{Kind: ServiceError, Message: message, Code: code}
		}
		return &Error{Kind: ProtocolError, Message: message, Code: code}
	}
}

// recognizedServiceCode reports whether code is in the service's documented
// set (spec §6): 100, 101, 200-204, 300-307, 400-405, 420-426, 500, 32000.
func recognizedServiceCode(code int) bool {
	switch {
	case code == 100 || code == 101:
		return true
	case code >= 200 && code <= 204:
		return true
	case code >= 300 && code <= 307:
		return true
	case code >= 400 && code <= 405:
		return true
	case code >= 420 && code <= 426:
		return true
	case code == 500:
		return true
	case code == 32000:
		return true
	default:
		return false
	}
}

// BadHTTP builds a BadHTTPResponse error.
func BadHTTP(status int, reason string) *Error {
	return &Error{Kind: BadHTTPResponse, Status: status, Reason: reason,
		Message: fmt.Sprintf("unexpected HTTP status %d: %s", status, reason)}
}

// IsRetryableTransport classifies only transport-layer failures a host
// application might reasonably retry outside the core. The core itself
// never auto-retries (spec §7 Non-goals); this is informational only,
// grounded on lokex's apierr.IsRetryable classifier.
func IsRetryableTransport(err *Error) bool {
	if err == nil {
		return false
	}
	switch err.Kind {
	case IO:
		return true
	case BadHTTPResponse:
		switch err.Status {
		case 408, 425, 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}
