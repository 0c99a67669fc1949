// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package kvtest

import (
	"fmt"
	"io"
	"testing"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/stretchr/testify/require"
)

type Opener = func() (keyvalue.Beginner, error)

type closableDb struct {
	keyvalue.Beginner
	t      testing.TB
	closed bool
}

func (c *closableDb) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if d, ok := c.Beginner.(io.Closer); ok {
		require.NoError(c.t, d.Close())
	}
}

func openDb(t testing.TB, open Opener) *closableDb {
	db, err := open()
	require.NoError(t, err)
	c := &closableDb{db, t, false}
	t.Cleanup(c.Close)
	return c
}

// TestSuite runs the standard key-value tests against the database returned
// by open.
func TestSuite(t *testing.T, open Opener) {
	t.Run("Database", func(t *testing.T) { TestDatabase(t, open) })
	t.Run("Delete", func(t *testing.T) { TestDelete(t, open) })
	t.Run("Discard", func(t *testing.T) { TestDiscard(t, open) })
	t.Run("SubBatch", func(t *testing.T) { TestSubBatch(t, open) })
}

func TestDatabase(t *testing.T, open Opener) {
	const N = 1000

	// Open and write changes
	db := openDb(t, open)

	batch := db.Begin(true)
	defer batch.Discard()

	// Read when nothing exists
	_, err := batch.Get(database.NewKey("answer", 0))
	require.Error(t, err)
	require.ErrorIs(t, err, errors.NotFound)

	// Write
	values := map[string]string{}
	for i := 0; i < N; i++ {
		key := database.NewKey("answer", i)
		value := fmt.Sprintf("%x this much data ", i)
		values[key.String()] = value
		require.NoError(t, batch.Put(key, []byte(value)), "Put")
	}

	// Commit
	require.NoError(t, batch.Commit())

	// Verify with a new batch
	batch = db.Begin(false)
	defer batch.Discard()

	for i := 0; i < N; i++ {
		key := database.NewKey("answer", i)
		v, err := batch.Get(key)
		require.NoError(t, err, "Get")
		require.Equal(t, values[key.String()], string(v))
	}
}

func TestDelete(t *testing.T, open Opener) {
	db := openDb(t, open)
	key := database.NewKey("delete", "me")

	batch := db.Begin(true)
	require.NoError(t, batch.Put(key, []byte("value")))
	require.NoError(t, batch.Commit())

	batch = db.Begin(true)
	require.NoError(t, batch.Delete(key))
	_, err := batch.Get(key)
	require.ErrorIs(t, err, errors.NotFound)
	require.NoError(t, batch.Commit())

	batch = db.Begin(false)
	defer batch.Discard()
	_, err = batch.Get(key)
	require.ErrorIs(t, err, errors.NotFound)
}

func TestDiscard(t *testing.T, open Opener) {
	db := openDb(t, open)
	key := database.NewKey("discard", "me")

	batch := db.Begin(true)
	require.NoError(t, batch.Put(key, []byte("value")))
	batch.Discard()

	batch = db.Begin(false)
	defer batch.Discard()
	_, err := batch.Get(key)
	require.ErrorIs(t, err, errors.NotFound)
}

func TestSubBatch(t *testing.T, open Opener) {
	db := openDb(t, open)
	kept := database.NewKey("sub", "kept")
	dropped := database.NewKey("sub", "dropped")

	batch := db.Begin(true)
	defer batch.Discard()

	sub := batch.Begin(true)
	require.NoError(t, sub.Put(kept, []byte("kept")))
	require.NoError(t, sub.Commit())

	sub = batch.Begin(true)
	require.NoError(t, sub.Put(dropped, []byte("dropped")))
	sub.Discard()

	v, err := batch.Get(kept)
	require.NoError(t, err)
	require.Equal(t, "kept", string(v))
	_, err = batch.Get(dropped)
	require.ErrorIs(t, err, errors.NotFound)

	require.NoError(t, batch.Commit())

	batch = db.Begin(false)
	defer batch.Discard()
	_, err = batch.Get(kept)
	require.NoError(t, err)
}
