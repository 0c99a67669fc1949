// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bolt

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds every record unless WithBucket says otherwise.
var DefaultBucket = []byte("firedao")

type Database struct {
	opts
	bolt    *bolt.DB
	metrics *keyvalue.Metrics
}

type opts struct {
	bucket  []byte
	timeout time.Duration
}

type Option func(*opts) error

// WithBucket stores records in the named bucket.
func WithBucket(name string) Option {
	return func(o *opts) error {
		if name == "" {
			return errors.BadRequest.With("bucket name is empty")
		}
		o.bucket = []byte(name)
		return nil
	}
}

// WithTimeout sets how long Open waits for the file lock.
func WithTimeout(d time.Duration) Option {
	return func(o *opts) error {
		o.timeout = d
		return nil
	}
}

var _ keyvalue.Beginner = (*Database)(nil)

func Open(path string, o ...Option) (*Database, error) {
	d := new(Database)
	d.bucket = DefaultBucket
	d.timeout = time.Second
	for _, o := range o {
		err := o(&d.opts)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
	}

	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open bolt: create %q: %w", filepath.Dir(path), err)
	}

	d.bolt, err = bolt.Open(path, 0600, &bolt.Options{Timeout: d.timeout})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open bolt: %w", err)
	}

	err = d.bolt.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(d.bucket)
		return err
	})
	if err != nil {
		_ = d.bolt.Close()
		return nil, errors.UnknownError.WithFormat("open bolt: create bucket: %w", err)
	}

	d.metrics = keyvalue.NewMetrics("bolt")
	d.metrics.Opened()
	return d, nil
}

// Begin begins a change set.
func (d *Database) Begin(writable bool) keyvalue.ChangeSet {
	// Use a read-only transaction for reading
	rd, err := d.bolt.Begin(false)
	done := d.metrics.Began()

	get := func(key *database.Key) ([]byte, error) {
		return d.get(rd, err, key)
	}

	var commit memory.CommitFunc
	if writable {
		commit = func(entries map[string]memory.Entry) error {
			return d.commit(rd, entries)
		}
	}

	discard := func() {
		if rd != nil {
			_ = rd.Rollback()
		}
		done()
	}

	return memory.NewChangeSet(get, commit, discard)
}

func (d *Database) get(tx *bolt.Tx, err error, key *database.Key) ([]byte, error) {
	if err != nil {
		return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
	}

	b := tx.Bucket(d.bucket)
	if b == nil {
		return nil, errors.InternalError.WithFormat("missing bucket %q", d.bucket)
	}

	v := b.Get(key.Bytes())
	if v == nil {
		return nil, errors.NotFound.WithFormat("%v not found", key)
	}

	// Values are only valid for the life of the transaction
	u := make([]byte, len(v))
	copy(u, v)
	return u, nil
}

func (d *Database) commit(rd *bolt.Tx, entries map[string]memory.Entry) error {
	// Release the read transaction so the writer can remap the file
	if rd != nil {
		_ = rd.Rollback()
	}

	start := time.Now()
	err := d.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(d.bucket)
		if b == nil {
			return errors.InternalError.WithFormat("missing bucket %q", d.bucket)
		}

		for k, e := range entries {
			var err error
			if e.Delete {
				err = b.Delete([]byte(k))
			} else {
				err = b.Put([]byte(k), e.Value)
			}
			if err != nil {
				return errors.UnknownError.WithFormat("write %v: %w", e.Key, err)
			}
		}
		return nil
	})
	return d.metrics.Committed(start, errors.UnknownError.Wrap(err))
}

// Close closes the underlying database.
func (d *Database) Close() error {
	d.metrics.Closed()
	return d.bolt.Close()
}
