// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

//go:build !production
// +build !production

package testing

import (
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

func EnableDebugFeatures() {
	errors.EnableLocationTracking()
}

func DisableDebugFeatures() {
	errors.DisableLocationTracking()
}
