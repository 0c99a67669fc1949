// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/kvtest"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSuite(t *testing.T) {
	kvtest.TestSuite(t, func() (keyvalue.Beginner, error) {
		return New(t.TempDir())
	})
}

func TestInMemory(t *testing.T) {
	kvtest.TestSuite(t, func() (keyvalue.Beginner, error) {
		return New("", WithInMemory)
	})
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	key := database.NewKey("Vault", "DAI-CAKE", "TotalShares")

	db, err := New(dir)
	require.NoError(t, err)
	batch := db.Begin(true)
	require.NoError(t, batch.Put(key, []byte(`"10000"`)))
	require.NoError(t, batch.Commit())
	require.NoError(t, db.Close())

	db, err = New(dir)
	require.NoError(t, err)
	defer db.Close()
	batch = db.Begin(false)
	defer batch.Discard()
	v, err := batch.Get(key)
	require.NoError(t, err)
	require.Equal(t, `"10000"`, string(v))
}

func TestClosed(t *testing.T) {
	db, err := New("", WithInMemory)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.lock(false)
	require.ErrorIs(t, err, errors.NotReady)
	require.ErrorIs(t, db.Close(), errors.NotReady)
}

func TestLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	log := newBadgerLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	log.Infof("Replaying file id: %d\n", 3)
	log.Debugf("flushing memtable")
	require.Empty(t, buf.String())

	log.Warningf("value log %d is corrupt\n", 7)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "level=WARN")
	require.Contains(t, lines[0], `msg="value log 7 is corrupt"`)
	require.Contains(t, lines[0], "module=badger")

	db, err := New("", WithInMemory, WithLogger(slog.New(slog.NewTextHandler(buf, nil))))
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
