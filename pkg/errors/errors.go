package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a workflow failure for user-facing reporting
type Kind string

const (
	KindInvalidURL     Kind = "invalid_url"
	KindLoginRequired  Kind = "login_required"
	KindPrivateContent Kind = "private_content"
	KindUnsupported    Kind = "unsupported"
	KindRateLimited    Kind = "rate_limited"
	KindTimeout        Kind = "timeout"
	KindFileTooLarge   Kind = "file_too_large"
	KindExhausted      Kind = "all_backends_exhausted"
	KindUnknown        Kind = "unknown"
)

// Error represents a classified failure produced at an adapter boundary.
// Only Kind drives what the user sees; Backend, Message and Code are
// diagnostic detail for logs.
type Error struct {
	Kind    Kind
	Backend string
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s: %s error (code %d): %s", e.Backend, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// E builds a classified error without a backend attribution.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromBackend builds a classified error attributed to a backend.
func FromBackend(backend string, kind Kind, code int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Backend: backend, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from an error chain, returning
// KindUnknown for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Specificity ranks kinds so the workflow can keep the most informative
// failure across backend attempts. Higher wins.
func Specificity(kind Kind) int {
	switch kind {
	case KindLoginRequired, KindPrivateContent:
		return 4
	case KindFileTooLarge:
		return 3
	case KindUnsupported:
		return 2
	case KindRateLimited, KindTimeout:
		return 1
	default:
		return 0
	}
}

// KindForStatus maps an HTTP status code to a failure kind.
func KindForStatus(code int) Kind {
	switch code {
	case 401, 403:
		return KindLoginRequired
	case 404, 410:
		return KindUnsupported
	case 429:
		return KindRateLimited
	default:
		return KindUnknown
	}
}
