// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"testing"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/kvtest"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/stretchr/testify/require"
)

func open(testing.TB) kvtest.Opener {
	// Reuse the same in-memory database each time
	db := New()
	return func() (keyvalue.Beginner, error) { return db, nil }
}

func TestSuite(t *testing.T) {
	kvtest.TestSuite(t, open(t))
}

func TestReadOnly(t *testing.T) {
	batch := New().Begin(false)
	defer batch.Discard()
	err := batch.Put(database.NewKey("foo"), []byte("bar"))
	require.ErrorIs(t, err, errors.BadRequest)
}

func TestUseAfterCommit(t *testing.T) {
	batch := New().Begin(true)
	require.NoError(t, batch.Commit())
	_, err := batch.Get(database.NewKey("foo"))
	require.ErrorIs(t, err, errors.NotReady)
}

func TestExportImport(t *testing.T) {
	db := New()
	batch := db.Begin(true)
	require.NoError(t, batch.Put(database.NewKey("b"), []byte("2")))
	require.NoError(t, batch.Put(database.NewKey("a"), []byte("1")))
	require.NoError(t, batch.Commit())

	entries := db.Export()
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Key.String())

	db2 := New()
	require.NoError(t, db2.Import(entries))
	v, err := db2.Begin(false).Get(database.NewKey("b"))
	require.NoError(t, err)
	require.Equal(t, "2", string(v))
}
