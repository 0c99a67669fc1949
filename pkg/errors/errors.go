// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var trackLocation = false

// EnableLocationTracking makes every error record the call site that created
// or wrapped it. Tests turn this on; production leaves it off.
func EnableLocationTracking() { trackLocation = true }

func DisableLocationTracking() { trackLocation = false }

// IsKnownError is false for zero and UnknownError. An error created with an
// unknown status takes the status of its cause.
func (s Status) IsKnownError() bool { return s != 0 && s != UnknownError }

func (s Status) Error() string { return s.String() }

// With returns an error with this status and the message fmt.Sprint(v...).
func (s Status) With(v ...interface{}) *Error {
	return newError(s, fmt.Sprint(v...), nil)
}

// WithFormat returns an error with this status and a formatted message. A %w
// verb makes the wrapped error the cause.
func (s Status) WithFormat(format string, args ...interface{}) *Error {
	err := fmt.Errorf(format, args...)
	var cause *Error
	if u := errors.Unwrap(err); u != nil {
		cause = convert(u)
	}
	return newError(s, err.Error(), cause)
}

// Wrap attaches this status to err. Wrap returns nil if err is nil.
func (s Status) Wrap(err error) error {
	if err == nil {
		// Returning a nil *Error here would produce a non-nil error
		return nil
	}
	if e, ok := err.(*Error); ok && !trackLocation && !s.IsKnownError() {
		return e
	}
	return newError(s, "", convert(err))
}

// newError must be called directly by the exported constructor so the
// recorded call site is the constructor's caller.
func newError(code Status, msg string, cause *Error) *Error {
	e := &Error{Code: code, Message: msg, Cause: cause}
	switch {
	case cause == nil || code.IsKnownError():
	case msg == "":
		// A bare wrap adds nothing but the call site
		e = &Error{
			Code:      cause.Code,
			Message:   cause.Message,
			Cause:     cause.Cause,
			CallStack: cause.CallStack,
		}
	default:
		e.Code = cause.Code
	}

	if trackLocation {
		pc, file, line, ok := runtime.Caller(2)
		if ok {
			cs := &CallSite{File: file, Line: int64(line)}
			if fn := runtime.FuncForPC(pc); fn != nil {
				cs.FuncName = fn.Name()
			}
			e.CallStack = append([]*CallSite{cs}, e.CallStack...)
		}
	}
	return e
}

// convert turns any error into an *Error, preferring one already in err's
// chain.
func convert(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	e = &Error{Code: UnknownError, Message: "(nil)"}
	if err == nil {
		return e
	}
	e.Message = err.Error()

	var s Status
	if errors.As(err, &s) {
		e.Code = s
		return e
	}
	if u := errors.Unwrap(err); u != nil {
		e.Cause = convert(u)
		e.Code = e.Cause.Code
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return e.Code.String()
	}
}

func (e *Error) Unwrap() error {
	if e.Cause == nil {
		return e.Code
	}
	return e.Cause
}

// Is matches a Status or an *Error with the same status anywhere in the
// causal chain.
func (e *Error) Is(target error) bool {
	var code Status
	switch t := target.(type) {
	case Status:
		code = t
	case *Error:
		code = t.Code
	default:
		return false
	}
	for ; e != nil; e = e.Cause {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Format prints the call stacks for %+v.
func (e *Error) Format(f fmt.State, verb rune) {
	s := e.Error()
	if f.Flag('+') {
		s = e.Print()
	}
	_, _ = f.Write([]byte(s))
}

// Print renders each error in the causal chain on its own, followed by its
// call stack. The cause's text is trimmed from the end of each compound
// message, so "withdraw: shortfall" followed by its cause "shortfall" is
// printed as "withdraw: " and then "shortfall".
func (e *Error) Print() string {
	if e.CallStack == nil {
		return e.Error()
	}

	var b strings.Builder
	for ; e != nil; e = e.Cause {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}

		msg := e.Message
		switch {
		case msg == "":
			msg = e.Code.String()
		case e.Cause != nil:
			msg = strings.TrimSuffix(msg, e.Cause.Message)
		}
		b.WriteString(msg)
		b.WriteByte('\n')

		for _, cs := range e.CallStack {
			fmt.Fprintf(&b, "%s\n    %s:%d\n", cs.FuncName, cs.File, cs.Line)
		}
	}
	return b.String()
}
