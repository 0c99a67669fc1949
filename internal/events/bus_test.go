// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package events

import (
	"sync"
	"testing"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestSubscribeSync(t *testing.T) {
	bus := NewBus(nil)

	var deposits []Deposited
	var all []Event
	SubscribeSync(bus, func(e Deposited) { deposits = append(deposits, e) })
	SubscribeSync(bus, func(e Event) { all = append(all, e) })

	bus.Publish(Deposited{Vault: "DAI-CAKE", Account: "alice", Amount: math.NewInt(100)})
	bus.Publish(Earned{Vault: "DAI-CAKE", Amount: math.NewInt(90)})

	require.Len(t, deposits, 1)
	require.Equal(t, "alice", deposits[0].Account.String())
	require.Len(t, all, 2)
	require.Equal(t, "earned", all[1].EventType())
}

func TestSubscriberPanic(t *testing.T) {
	bus := NewBus(logging.NewTestLogger(t, 0))

	var called bool
	SubscribeSync(bus, func(Earned) { panic("boom") })
	SubscribeSync(bus, func(Earned) { called = true })

	require.NotPanics(t, func() { bus.Publish(Earned{}) })
	require.True(t, called)
}

func TestSubscribeAsync(t *testing.T) {
	bus := NewBus(nil)

	wg := new(sync.WaitGroup)
	wg.Add(1)
	var got ActionQueued
	SubscribeAsync(bus, func(e ActionQueued) {
		defer wg.Done()
		got = e
	})

	bus.Publish(ActionQueued{ID: "abc"})
	wg.Wait()
	require.Equal(t, "abc", got.ID)
}
