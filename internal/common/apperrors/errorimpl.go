package apperrors

import (
	"errors"
	"strings"
)

type appError struct {
	msg           string
	base          error
	wrappedErrors []error
	statuscode    int
	kind          Kind
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll returns the message followed by the messages of all wrapped errors that
// are not part of the template chain.
func (e *appError) ErrorAll() string {
	var b strings.Builder
	b.WriteString(e.msg)
	for _, err := range e.wrappedErrors {
		if _, ok := err.(*appError); ok {
			continue
		}
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *appError) Unwrap() error {
	return e.base
}

func (e *appError) UnwrapAll() []error {
	return e.wrappedErrors
}

func (e *appError) derive(msg string, errs []error) *appError {
	return &appError{
		msg:           msg,
		base:          e,
		wrappedErrors: errs,
		statuscode:    e.statuscode,
		kind:          e.kind,
	}
}

func (e *appError) Msg(msg string) Error {
	return e.derive(msg, append([]error{e}, e.wrappedErrors...))
}

func (e *appError) New(msg string) Error {
	return e.derive(msg, nil)
}

func (e *appError) MsgErr(msg string, errs ...error) Error {
	return e.derive(msg, append([]error{e}, errs...))
}

func (e *appError) Err(errs ...error) Error {
	return e.derive(e.msg, append([]error{e}, errs...))
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statuscode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

// SetKind returns a copy tagged with k. The copy still matches the receiver with errors.Is.
func (e *appError) SetKind(k Kind) Error {
	cp := *e
	cp.kind = k
	cp.base = e
	return &cp
}

func (e *appError) Kind() Kind {
	return e.kind
}

// New creates a root-level error with the given message.
func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}

// Is reports whether target is in the base chain or among the wrapped errors.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As searches the wrapped errors; the base chain is reached through Unwrap.
func (e *appError) As(target any) bool {
	for _, err := range e.wrappedErrors {
		if _, ok := err.(*appError); ok {
			continue
		}
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

// KindOf returns the Kind of the first Error found in err's chain.
func KindOf(err error) Kind {
	var ae Error
	if errors.As(err, &ae) {
		return ae.Kind()
	}
	return KindUnknown
}
