// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"context"
	"testing"
	"time"

	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newState(db *memory.Database) *State {
	return New(context.Background(), db.Begin(true), Header{Height: 1, Time: time.Unix(1000, 0)})
}

func TestCommitAndDiscard(t *testing.T) {
	db := memory.New()
	key := database.NewKey("foo")

	st := newState(db)
	require.NoError(t, st.Put(key, []byte("bar")))
	st.Discard()

	st = newState(db)
	_, err := st.Get(key)
	require.ErrorIs(t, err, errors.NotFound)
	require.NoError(t, st.Put(key, []byte("baz")))
	require.NoError(t, st.Commit())

	_, err = st.Get(key)
	require.ErrorIs(t, err, errors.NotReady)
	require.ErrorIs(t, st.Commit(), errors.NotReady)

	st = newState(db)
	v, err := st.Get(key)
	require.NoError(t, err)
	require.Equal(t, "baz", string(v))
}

func TestAtomic(t *testing.T) {
	db := memory.New()
	st := newState(db)
	a, b := database.NewKey("a"), database.NewKey("b")

	st.Emit(events.Earned{Vault: "outer"})
	err := st.Atomic(func() error {
		require.NoError(t, st.Put(a, []byte("1")))
		st.Emit(events.Earned{Vault: "inner"})
		return errors.SlippageExceeded.With("too little")
	})
	require.ErrorIs(t, err, errors.SlippageExceeded)
	_, err = st.Get(a)
	require.ErrorIs(t, err, errors.NotFound)
	require.Len(t, st.Events(), 1)

	err = st.Atomic(func() error {
		st.Emit(events.Earned{Vault: "inner"})
		return st.Put(b, []byte("2"))
	})
	require.NoError(t, err)
	v, err := st.Get(b)
	require.NoError(t, err)
	require.Equal(t, "2", string(v))
	require.Len(t, st.Events(), 2)
}

func TestNestedAtomic(t *testing.T) {
	db := memory.New()
	st := newState(db)
	a, b := database.NewKey("a"), database.NewKey("b")

	err := st.Atomic(func() error {
		require.NoError(t, st.Put(a, []byte("1")))
		err := st.Atomic(func() error {
			require.NoError(t, st.Put(b, []byte("2")))
			return errors.Shortfall.With("short")
		})
		require.ErrorIs(t, err, errors.Shortfall)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, st.Commit())

	st = newState(db)
	_, err = st.Get(a)
	require.NoError(t, err)
	_, err = st.Get(b)
	require.ErrorIs(t, err, errors.NotFound)
}

func TestEnter(t *testing.T) {
	st := newState(memory.New())

	exit, err := st.Enter("vault/a")
	require.NoError(t, err)

	_, err = st.Enter("vault/a")
	require.ErrorIs(t, err, errors.Reentrant)

	exit2, err := st.Enter("vault/b")
	require.NoError(t, err)
	exit2()

	exit()
	exit, err = st.Enter("vault/a")
	require.NoError(t, err)
	exit()
}
