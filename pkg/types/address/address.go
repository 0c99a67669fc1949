// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package address

import (
	"strings"
	"unicode"

	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Address identifies an account that can hold assets: a user, a treasury, or
// one of the protocol's components.
type Address string

// Well-known component accounts.
const (
	Harvester Address = "harvester"
	Farm      Address = "farm"
	Timelock  Address = "timelock"
	Router    Address = "router"
	Genesis   Address = "genesis"
)

// Vault returns the custody account of a vault.
func Vault(id string) Address { return Address("vault/" + id) }

// Strategy returns the custody account of a strategy.
func Strategy(id string) Address { return Address("strategy/" + id) }

// Market returns the account of a lending market.
func Market(id string) Address { return Address("market/" + id) }

// Pool returns the account of a staking pool.
func Pool(id string) Address { return Address("pool/" + id) }

func (a Address) String() string { return string(a) }

// Kind returns the component kind of the address, such as "vault", or the
// empty string for plain accounts.
func (a Address) Kind() string {
	i := strings.IndexByte(string(a), '/')
	if i < 0 {
		return ""
	}
	return string(a[:i])
}

// Component returns true if the address belongs to one of the protocol's
// components rather than a user.
func (a Address) Component() bool {
	switch a {
	case Harvester, Farm, Timelock, Router, Genesis:
		return true
	}
	return a.Kind() != ""
}

// Validate returns an error if the address is empty or contains whitespace or
// control characters.
func (a Address) Validate() error {
	if a == "" {
		return errors.BadRequest.With("address is empty")
	}
	for _, r := range a {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.BadRequest.WithFormat("address %q contains invalid characters", string(a))
		}
	}
	return nil
}

// ValidateID returns an error if id is not usable as the identifier of a
// component or asset. Identifiers must be non-empty and must not contain
// whitespace, dots, or slashes.
func ValidateID(kind, id string) error {
	if id == "" {
		return errors.BadRequest.WithFormat("%s ID is empty", kind)
	}
	for _, r := range id {
		if r == '.' || r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.BadRequest.WithFormat("%s ID %q contains invalid characters", kind, id)
		}
	}
	return nil
}
