// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/spf13/cobra"
)

var cmdInit = &cobra.Command{
	Use:   "init",
	Short: "Initialize a devnet configuration",
	Args:  cobra.NoArgs,
	Run:   initNode,
}

var flagInit struct {
	Reset         bool
	Storage       string
	ListenAddress string
	NoKeeper      bool
	NoAdmin       bool
}

func init() {
	cmdMain.AddCommand(cmdInit)

	cmdInit.Flags().BoolVar(&flagInit.Reset, "reset", false, "Delete any existing configuration and data")
	cmdInit.Flags().StringVar(&flagInit.Storage, "storage", string(config.BadgerStorage), "Storage type: memory, badger, bolt, or leveldb")
	cmdInit.Flags().StringVarP(&flagInit.ListenAddress, "listen", "l", "", "API listen address")
	cmdInit.Flags().BoolVar(&flagInit.NoKeeper, "no-keeper", false, "Disable the keeper")
	cmdInit.Flags().BoolVar(&flagInit.NoAdmin, "no-admin", false, "Disable the operator API routes")
}

func initNode(*cobra.Command, []string) {
	dir := flagMain.WorkDir
	if _, err := os.Stat(config.Path(dir)); err == nil && !flagInit.Reset {
		fatalf("%s already exists, use --reset to overwrite it", config.Path(dir))
	}
	if flagInit.Reset {
		checkf(os.RemoveAll(dir), "reset %s", dir)
	}

	cfg := config.Default()
	cfg.SetRoot(dir)
	cfg.Storage.Type = config.StorageType(flagInit.Storage)
	if flagInit.ListenAddress != "" {
		cfg.API.ListenAddress = flagInit.ListenAddress
	}
	if flagInit.NoKeeper {
		cfg.Keeper.Enabled = false
	}
	cfg.API.DisableAdmin = flagInit.NoAdmin

	checkf(config.Store(cfg), "store configuration")
	fmt.Printf("%s %s\n", color.GreenString("Initialized"), config.Path(dir))
}
