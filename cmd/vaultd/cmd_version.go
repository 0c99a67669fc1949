// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"

	firedao "github.com/gulitsky/firedao-protocol"
	"github.com/spf13/cobra"
)

var cmdVersion = &cobra.Command{
	Use:  "version",
	Args: cobra.NoArgs,
	Run:  showVersion,
}

var flagVersion struct {
	VersionOnly  bool
	KnownVersion bool
}

func init() {
	cmdMain.AddCommand(cmdVersion)

	cmdVersion.Flags().BoolVar(&flagVersion.VersionOnly, "version-only", false, "Only print out the version number")
	cmdVersion.Flags().BoolVar(&flagVersion.KnownVersion, "known-version", false, "Return 1 if the version number is unknown")
}

func showVersion(*cobra.Command, []string) {
	if flagVersion.KnownVersion && !firedao.IsVersionKnown() {
		defer os.Exit(1)
	} else {
		defer os.Exit(0)
	}

	if flagVersion.VersionOnly {
		fmt.Println(firedao.Version)
		return
	}

	if firedao.Commit != "" {
		fmt.Printf("%s %s (%s)\n", cmdMain.Short, firedao.Version, firedao.Commit)
		return
	}
	fmt.Printf("%s %s\n", cmdMain.Short, firedao.Version)
}
