// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package keyvalue

import "github.com/gulitsky/firedao-protocol/pkg/database"

// Store is a key-value store.
type Store interface {
	// Get loads a value. Get returns an error with status NotFound if the
	// value does not exist.
	Get(key *database.Key) ([]byte, error)

	// Put stores a value.
	Put(key *database.Key, value []byte) error

	// Delete deletes a value.
	Delete(key *database.Key) error
}

// ChangeSet is a key-value change set.
type ChangeSet interface {
	Store
	Beginner

	// Commit commits pending changes.
	Commit() error

	// Discard discards pending changes.
	Discard()
}

// A Beginner can begin key-value change sets.
type Beginner interface {
	// Begin begins a transaction or sub-transaction.
	Begin(writable bool) ChangeSet
}
