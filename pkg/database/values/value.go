// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package values

import (
	"encoding/json"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Value is a typed record stored as JSON under a key.
type Value[T any] struct {
	store keyvalue.Store
	key   *database.Key
}

// NewValue returns a value for the given key.
func NewValue[T any](store keyvalue.Store, key *database.Key) *Value[T] {
	return &Value[T]{store: store, key: key}
}

// Key returns the value's key.
func (v *Value[T]) Key() *database.Key { return v.key }

// Get loads the value. Get returns an error with status NotFound if the value
// has not been stored.
func (v *Value[T]) Get() (T, error) {
	var z T
	b, err := v.store.Get(v.key)
	if err != nil {
		return z, errors.UnknownError.Wrap(err)
	}

	var u T
	err = json.Unmarshal(b, &u)
	if err != nil {
		return z, errors.EncodingError.WithFormat("decode %v: %w", v.key, err)
	}
	return u, nil
}

// GetOr loads the value, returning def if the value has not been stored.
func (v *Value[T]) GetOr(def T) (T, error) {
	u, err := v.Get()
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, errors.NotFound):
		return def, nil
	default:
		return u, err
	}
}

// Exists returns true if the value has been stored.
func (v *Value[T]) Exists() (bool, error) {
	_, err := v.store.Get(v.key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errors.NotFound):
		return false, nil
	default:
		return false, errors.UnknownError.Wrap(err)
	}
}

// Put stores the value.
func (v *Value[T]) Put(u T) error {
	b, err := json.Marshal(u)
	if err != nil {
		return errors.EncodingError.WithFormat("encode %v: %w", v.key, err)
	}
	return errors.UnknownError.Wrap(v.store.Put(v.key, b))
}

// Delete deletes the value.
func (v *Value[T]) Delete() error {
	return errors.UnknownError.Wrap(v.store.Delete(v.key))
}
