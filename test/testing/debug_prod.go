// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

//go:build production
// +build production

package testing

func EnableDebugFeatures()  {}
func DisableDebugFeatures() {}
