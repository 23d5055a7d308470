// Package apperrors provides the error type shared by the waiter packages. Errors are
// created as templates, derived with a new message, and can carry any number of wrapped
// causes, an HTTP status code, and a diagnostic Kind. The user-facing layer only ever
// shows a generic message; the Kind and wrapped causes are for logs.
package apperrors

// Kind classifies a failure for diagnostics.
type Kind string

const (
	KindUnknown            Kind = ""
	KindNetwork            Kind = "network"
	KindStorage            Kind = "storage"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindBadResponse        Kind = "bad_response"
	KindInvalidInput       Kind = "invalid_input"
	KindState              Kind = "state"
)

// Error is the application error. All derivation methods return a new Error and leave
// the receiver unchanged.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error                  // new error using current as template
	Msg(msg string) Error                  // new message, wraps the original
	MsgErr(msg string, err ...error) Error // new message, wraps the original and errs
	Err(err ...error) Error                // same message, attaches errs
	SetStatusCode(int) Error
	StatusCode() int
	SetKind(Kind) Error
	Kind() Kind
	ErrorAll() string   // message followed by every wrapped error
	UnwrapAll() []error // wrapped errors in the order they were added
}
