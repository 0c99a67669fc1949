// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodePropagatesThroughWrapping(t *testing.T) {
	cause := InsufficientBalance.WithFormat("balance %d, want %d", 1, 2)
	err := UnknownError.WithFormat("withdraw: %w", cause)

	require.Equal(t, InsufficientBalance, Code(err))
	require.ErrorIs(t, err, InsufficientBalance)
	require.Equal(t, "withdraw: balance 1, want 2", err.Error())
}

func TestKnownCodeIsNotOverridden(t *testing.T) {
	err := Shortfall.Wrap(AdapterUnavailable.With("market is down"))
	require.Equal(t, Shortfall, Code(err))
	require.ErrorIs(t, err, AdapterUnavailable)
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, UnknownError.Wrap(nil))
}

func TestPlainErrors(t *testing.T) {
	err := UnknownError.Wrap(fmt.Errorf("boom"))
	require.Equal(t, UnknownError, Code(err))
	require.Equal(t, Status(0), Code(fmt.Errorf("boom")))
	require.Equal(t, Expired, Code(Expired))
}

func TestStatusNames(t *testing.T) {
	for s, name := range statusNames {
		v, ok := StatusByName(name)
		require.True(t, ok)
		require.Equal(t, s, v)
	}
	require.Equal(t, "status(999)", Status(999).String())
}

func TestCallStack(t *testing.T) {
	trackLocation = true
	defer func() { trackLocation = false }()

	err := BadRequest.With("nope")
	require.Len(t, err.CallStack, 1)
	require.Contains(t, err.CallStack[0].FuncName, "TestCallStack")
	require.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func TestPrint(t *testing.T) {
	trackLocation = true
	defer func() { trackLocation = false }()

	inner := Shortfall.With("shortfall")
	outer := UnknownError.WithFormat("withdraw: %w", inner)
	require.Equal(t, Shortfall, outer.Code)
	require.Len(t, outer.CallStack, 1)

	p := outer.Print()
	require.True(t, strings.HasPrefix(p, "withdraw: \n"), p)
	require.Contains(t, p, "\nshortfall\n")
	require.Equal(t, 2, strings.Count(p, "TestPrint"))

	// A bare wrap keeps the message and adds a call site
	wrapped := UnknownError.Wrap(inner).(*Error)
	require.Equal(t, "shortfall", wrapped.Error())
	require.Len(t, wrapped.CallStack, 2)
}

func TestFormatWithoutCause(t *testing.T) {
	err := NotFound.WithFormat("vault %q", "DAI-CAKE")
	require.Nil(t, err.Cause)
	require.Equal(t, NotFound, Code(err))
	require.False(t, err.Is(Conflict))
	require.Equal(t, `vault "DAI-CAKE"`, fmt.Sprintf("%v", err))
}
