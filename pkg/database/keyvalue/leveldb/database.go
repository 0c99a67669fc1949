// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package leveldb

import (
	"os"
	"time"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type Database struct {
	opts
	leveldb *leveldb.DB
	metrics *keyvalue.Metrics
}

type opts struct {
	sync bool
}

type Option func(*opts) error

// WithSync fsyncs every commit.
func WithSync(o *opts) error {
	o.sync = true
	return nil
}

var _ keyvalue.Beginner = (*Database)(nil)

func OpenFile(filepath string, o ...Option) (*Database, error) {
	d := new(Database)
	for _, o := range o {
		err := o(&d.opts)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
	}

	// Make sure all directories exist
	err := os.MkdirAll(filepath, 0700)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("create %q: %w", filepath, err)
	}

	d.leveldb, err = leveldb.OpenFile(filepath, nil)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open %q: %w", filepath, err)
	}

	d.metrics = keyvalue.NewMetrics("leveldb")
	d.metrics.Opened()
	return d, nil
}

// Begin begins a change set. Reads see a snapshot taken when the change set
// begins.
func (d *Database) Begin(writable bool) keyvalue.ChangeSet {
	snap, err := d.leveldb.GetSnapshot()
	done := d.metrics.Began()

	get := func(key *database.Key) ([]byte, error) {
		return d.get(snap, err, key)
	}

	var commit memory.CommitFunc
	if writable {
		commit = d.commit
	}

	discard := func() {
		if snap != nil {
			snap.Release()
		}
		done()
	}

	return memory.NewChangeSet(get, commit, discard)
}

func (d *Database) commit(entries map[string]memory.Entry) error {
	start := time.Now()
	batch := new(leveldb.Batch)
	for k, e := range entries {
		if e.Delete {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), e.Value)
		}
	}

	err := d.leveldb.Write(batch, &opt.WriteOptions{Sync: d.sync})
	return d.metrics.Committed(start, errors.UnknownError.Wrap(err))
}

func (d *Database) get(snap *leveldb.Snapshot, err error, key *database.Key) ([]byte, error) {
	if err != nil {
		return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
	}

	v, err := snap.Get(key.Bytes(), nil)
	switch {
	case err == nil:
		u := make([]byte, len(v))
		copy(u, v)
		return u, nil
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, errors.NotFound.WithFormat("%v not found", key)
	default:
		return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
	}
}

// Close closes the underlying database.
func (d *Database) Close() error {
	d.metrics.Closed()
	return d.leveldb.Close()
}
