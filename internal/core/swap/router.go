// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package swap provides the swap primitive used by harvests and reward
// reinvestment.
package swap

import (
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Router executes swaps along a path of assets.
type Router interface {
	// SwapExactIn swaps amountIn of path[0] held by caller into path[len-1],
	// paid to recipient. It fails with SlippageExceeded if the output is less
	// than minOut and with Expired if the current time is after deadline. A
	// zero deadline never expires.
	SwapExactIn(st *state.State, caller address.Address, path []string, amountIn, minOut math.Int, deadline time.Time, recipient address.Address) (math.Int, error)

	// Quote returns the output SwapExactIn would produce without executing it.
	Quote(st *state.State, path []string, amountIn math.Int) (math.Int, error)
}
