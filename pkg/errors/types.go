// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

// Status is an operation status code.
type Status uint64

const (
	// OK means the operation succeeded.
	OK Status = 200

	// BadRequest means the request was malformed or invalid.
	BadRequest Status = 400
	// Unauthorized means the caller is not allowed to perform the operation.
	Unauthorized Status = 401
	// InsufficientBalance means the caller does not hold enough of an asset.
	InsufficientBalance Status = 402
	// InsufficientShares means the caller does not hold enough vault shares.
	InsufficientShares Status = 403
	// NotFound means a record could not be found.
	NotFound Status = 404
	// Conflict means the request conflicts with existing state.
	Conflict Status = 409
	// InvalidAmount means an amount is zero or negative.
	InvalidAmount Status = 410
	// VaultPaused means the vault has no active strategy.
	VaultPaused Status = 411
	// SlippageExceeded means a swap returned less than the minimum output.
	SlippageExceeded Status = 412
	// Expired means a deadline or grace period has passed.
	Expired Status = 413
	// DuplicatePool means a farm pool is already registered.
	DuplicatePool Status = 414
	// PoolNotFound means a farm pool is not registered.
	PoolNotFound Status = 415
	// NotReady means the operation cannot happen yet.
	NotReady Status = 425
	// Reentrant means an operation re-entered a guarded component.
	Reentrant Status = 429

	// InternalError means an internal invariant was violated.
	InternalError Status = 500
	// UnknownError means the cause of the error is unknown.
	UnknownError Status = 501
	// Shortfall means a strategy could not return the requested funds.
	Shortfall Status = 502
	// AdapterUnavailable means an external yield source is unavailable.
	AdapterUnavailable Status = 503
	// EncodingError means a value could not be encoded or decoded.
	EncodingError Status = 504
)

var statusNames = map[Status]string{
	OK:                  "ok",
	BadRequest:          "bad request",
	Unauthorized:        "unauthorized",
	InsufficientBalance: "insufficient balance",
	InsufficientShares:  "insufficient shares",
	NotFound:            "not found",
	Conflict:            "conflict",
	InvalidAmount:       "invalid amount",
	VaultPaused:         "vault paused",
	SlippageExceeded:    "slippage exceeded",
	Expired:             "expired",
	DuplicatePool:       "duplicate pool",
	PoolNotFound:        "pool not found",
	NotReady:            "not ready",
	Reentrant:           "reentrant call",
	InternalError:       "internal error",
	UnknownError:        "unknown error",
	Shortfall:           "shortfall",
	AdapterUnavailable:  "adapter unavailable",
	EncodingError:       "encoding error",
}

// String returns the name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + itoa(uint64(s)) + ")"
}

// MarshalText implements [encoding.TextMarshaler].
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// StatusByName returns the status with the given name.
func StatusByName(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}

// CallSite records where an error was created or wrapped.
type CallSite struct {
	FuncName string `json:"funcName,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int64  `json:"line,omitempty"`
}

// Error is an error with a status code, an optional cause, and an optional
// call stack.
type Error struct {
	Message   string      `json:"message,omitempty"`
	Code      Status      `json:"code,omitempty"`
	Cause     *Error      `json:"cause,omitempty"`
	CallStack []*CallSite `json:"callStack,omitempty"`
}
