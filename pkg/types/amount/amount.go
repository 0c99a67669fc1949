// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package amount provides helpers for integer asset amounts and basis-point
// rates.
package amount

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// MaxBps is the basis-point denominator, 100%.
const MaxBps = 10_000

// Bps is a rate in basis points.
type Bps uint64

// Validate returns an error if the rate exceeds 100%.
func (b Bps) Validate() error {
	if b > MaxBps {
		return errors.BadRequest.WithFormat("rate %d exceeds %d basis points", b, MaxBps)
	}
	return nil
}

// Of returns floor(x * b / 10000).
func (b Bps) Of(x math.Int) math.Int {
	return x.Mul(math.NewIntFromUint64(uint64(b))).QuoRaw(MaxBps)
}

// Complement returns 10000 - b.
func (b Bps) Complement() Bps {
	if b > MaxBps {
		return 0
	}
	return MaxBps - b
}

// OrZero returns x, or zero if x is nil.
func OrZero(x math.Int) math.Int {
	if x.IsNil() {
		return math.ZeroInt()
	}
	return x
}

// Parse parses a decimal integer amount.
func Parse(s string) (math.Int, error) {
	x, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.BadRequest.WithFormat("invalid amount %q", s)
	}
	return x, nil
}

// RequirePositive returns an error with status InvalidAmount if x is nil,
// zero, or negative.
func RequirePositive(x math.Int, what string) error {
	if x.IsNil() || !x.IsPositive() {
		return errors.InvalidAmount.WithFormat("%s must be positive", what)
	}
	return nil
}
