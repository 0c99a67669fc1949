// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package amount

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestBps(t *testing.T) {
	require.True(t, Bps(2000).Of(math.NewInt(900)).Equal(math.NewInt(180)))
	require.True(t, Bps(1000).Of(math.NewInt(10_001)).Equal(math.NewInt(1000)))
	require.Equal(t, Bps(9000), Bps(1000).Complement())
	require.NoError(t, Bps(MaxBps).Validate())
	require.ErrorIs(t, Bps(MaxBps+1).Validate(), errors.BadRequest)
}

func TestRequirePositive(t *testing.T) {
	require.NoError(t, RequirePositive(math.OneInt(), "amount"))
	require.ErrorIs(t, RequirePositive(math.ZeroInt(), "amount"), errors.InvalidAmount)
	require.ErrorIs(t, RequirePositive(math.NewInt(-1), "amount"), errors.InvalidAmount)
	require.ErrorIs(t, RequirePositive(math.Int{}, "amount"), errors.InvalidAmount)
}

func TestParse(t *testing.T) {
	x, err := Parse("1000000000000000000000")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000", x.String())

	_, err = Parse("1.5")
	require.ErrorIs(t, err, errors.BadRequest)
	require.True(t, OrZero(math.Int{}).IsZero())
}
