package check

import (
	"errors"
	"strings"
)

// Error kinds. Match them with errors.Is against any error returned by this
// package or by a Source implementation.
var (
	ErrEndpointUnreachable  = errors.New("endpoint unreachable")
	ErrUnexpectedShape      = errors.New("unexpected response shape")
	ErrCertificate          = errors.New("certificate error")
	ErrAlertNotRegistered   = errors.New("alert does not exist")
	ErrMissingSeverityLabel = errors.New("missing severity label")
)

// Error is a classified check failure.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Endpoint is the URL involved, empty for resolver-level failures.
	Endpoint string
	// Err is the underlying cause, may be nil.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Endpoint != "" {
		b.WriteString(" @ ")
		b.WriteString(e.Endpoint)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind of err, or nil when err is not a classified failure.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrEndpointUnreachable,
		ErrUnexpectedShape,
		ErrCertificate,
		ErrAlertNotRegistered,
		ErrMissingSeverityLabel,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
