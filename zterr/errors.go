// Package zterr defines the error taxonomy shared by every subsystem of the
// ZTeraDB client: configuration, filter algebra, query building, the
// session handshake, and the connection pool all raise errors through this
// package so callers can classify failures with errors.Is/errors.As instead
// of string-matching.
package zterr

import "fmt"

// Kind classifies an Error. The zero value is never produced by New.
type Kind int

const (
	// KindConfig marks an invalid configuration field.
	KindConfig Kind = iota + 1
	// KindCondition marks an invalid filter algebra construction.
	KindCondition
	// KindQueryBuild marks a missing query kind, bad field name, forbidden
	// value type, or invalid limit.
	KindQueryBuild
	// KindAuthenticationFailed marks a rejected handshake or token mismatch.
	KindAuthenticationFailed
	// KindConnection marks a TCP failure, mid-stream I/O fault, or frame
	// decode failure.
	KindConnection
	// KindTimeout marks a connect or per-frame read that exceeded its
	// budget.
	KindTimeout
	// KindQuery marks a server-reported error mid-stream.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindCondition:
		return "condition"
	case KindQueryBuild:
		return "query_build"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every package in this
// module. Its Kind lets callers branch on the failure category without
// parsing Message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, zterr.New(zterr.KindConnection, "")) match any
// *Error of the same Kind, whatever its message; see IsKind for the
// idiomatic helper.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with the given Kind and a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error that carries an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is a *Error of the given Kind, unwrapping as
// needed.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ze, ok := err.(*Error); ok {
			e = ze
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return false
	}
	return e.Kind == kind
}
