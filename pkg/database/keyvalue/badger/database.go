// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

type Database struct {
	opts
	badger  *badger.DB
	metrics *keyvalue.Metrics
	ready  bool
	mu     sync.RWMutex
	stop   chan struct{}
}

type opts struct {
	inMemory   bool
	gcInterval time.Duration
	logger     *slog.Logger
}

type Option func(*opts) error

// WithInMemory opens Badger in in-memory mode. The path is ignored.
func WithInMemory(o *opts) error {
	o.inMemory = true
	return nil
}

// WithGCInterval sets how often the value log is garbage collected.
func WithGCInterval(d time.Duration) Option {
	return func(o *opts) error {
		if d <= 0 {
			return errors.BadRequest.WithFormat("invalid GC interval %v", d)
		}
		o.gcInterval = d
		return nil
	}
}

// WithLogger sends Badger's own messages, and GC failures, to the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *opts) error {
		o.logger = l
		return nil
	}
}

var _ keyvalue.Beginner = (*Database)(nil)

func New(filepath string, o ...Option) (*Database, error) {
	d := new(Database)
	d.gcInterval = time.Hour
	d.metrics = keyvalue.NewMetrics("badger")
	for _, o := range o {
		err := o(&d.opts)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
	}

	var opts badger.Options
	if d.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Make sure all directories exist
		err := os.MkdirAll(filepath, 0700)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("open badger: create %q: %w", filepath, err)
		}
		opts = badger.DefaultOptions(filepath)
	}
	log := newBadgerLogger(d.logger)
	d.logger = log.log
	opts = opts.WithLogger(log)

	// Open Badger
	var err error
	d.badger, err = badger.Open(opts)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open badger: %w", err)
	}

	d.ready = true
	d.stop = make(chan struct{})
	d.metrics.Opened()

	if !d.inMemory {
		go d.gc()
	}

	return d, nil
}

// Begin begins a change set.
func (d *Database) Begin(writable bool) keyvalue.ChangeSet {
	// Use a read-only transaction for reading
	rd := d.badger.NewTransaction(false)
	done := d.metrics.Began()

	// Read from the transaction
	get := func(key *database.Key) ([]byte, error) {
		l, err := d.lock(false)
		if err != nil {
			return nil, err
		}
		defer l.Unlock()

		item, err := rd.Get(key.Bytes())
		switch {
		case err == nil:
			// Ok
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil, errors.NotFound.WithFormat("%v not found", key)
		default:
			return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
		}

		v, err := item.ValueCopy(nil)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
		}
		return v, nil
	}

	// Commit to the write batch
	var commit memory.CommitFunc
	if writable {
		commit = func(entries map[string]memory.Entry) error {
			l, err := d.lock(false)
			if err != nil {
				return err
			}
			defer l.Unlock()

			start := time.Now()
			// Use a write batch for writing to work around Badger's transaction
			// size limits
			wr := d.badger.NewWriteBatch()
			defer wr.Cancel()

			for k, e := range entries {
				if e.Delete {
					err = wr.Delete([]byte(k))
				} else {
					err = wr.Set([]byte(k), e.Value)
				}
				if err != nil {
					return d.metrics.Committed(start, errors.UnknownError.WithFormat("write %v: %w", e.Key, err))
				}
			}

			return d.metrics.Committed(start, errors.UnknownError.Wrap(wr.Flush()))
		}
	}

	// Discard the transaction
	discard := func() {
		rd.Discard()
		done()
	}

	// The memory change set caches entries in a map so Get will see values
	// updated with Put, regardless of the underlying transaction and write
	// batch behavior
	return memory.NewChangeSet(get, commit, discard)
}

// Close closes the underlying database.
func (d *Database) Close() error {
	if l, err := d.lock(true); err != nil {
		return err
	} else {
		defer l.Unlock()
	}

	d.ready = false
	close(d.stop)
	d.metrics.Closed()
	return d.badger.Close()
}

func (d *Database) gc() {
	tick := time.NewTicker(d.gcInterval)
	defer tick.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-tick.C:
		}

		// Still open?
		l, err := d.lock(false)
		if err != nil {
			return
		}

		// Run GC if 50% space could be reclaimed
		start := time.Now()
		err = d.badger.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			d.logger.Error("Value log GC failed", "error", err)
		}
		d.metrics.Compacted(start)

		// Release the lock
		l.Unlock()
	}
}

// lock acquires a lock on the ready mutex and checks for readiness. This
// prevents races between Get/Commit and Close.
func (d *Database) lock(closing bool) (sync.Locker, error) {
	var l sync.Locker = &d.mu
	if !closing {
		l = d.mu.RLocker()
	}

	l.Lock()
	if !d.ready {
		l.Unlock()
		return nil, errors.NotReady.With("database is closed")
	}

	return l, nil
}
