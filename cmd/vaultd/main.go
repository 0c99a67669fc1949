// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// homeEnv overrides the default work directory.
const homeEnv = "VAULTD_HOME"

var cmdMain = &cobra.Command{
	Use:   "vaultd",
	Short: "FireDAO yield vault daemon",
	Long:  "vaultd runs the FireDAO yield vaults against a local ledger.\nStart with 'vaultd init', then 'vaultd run'.",
	SilenceUsage:      true,
	PersistentPreRunE: applyMainFlags,
	Run:               printUsageAndExit1,
}

var flagMain struct {
	WorkDir  string
	LogLevel string
	NoColor  bool
}

func init() {
	flags := cmdMain.PersistentFlags()
	flags.StringVarP(&flagMain.WorkDir, "work-dir", "w", defaultWorkDir(), "Directory holding vaultd.toml and the ledger (default $"+homeEnv+" or ~/.vaultd)")
	flags.StringVar(&flagMain.LogLevel, "log-level", "", "Override the configured log levels, for example \"info;vault=debug\"")
	flags.BoolVar(&flagMain.NoColor, "no-color", false, "Disable colored output and logs")
}

func main() {
	if cmdMain.Execute() != nil {
		os.Exit(1)
	}
}

func defaultWorkDir() string {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vaultd"
	}
	return filepath.Join(home, ".vaultd")
}

func applyMainFlags(*cobra.Command, []string) error {
	if flagMain.WorkDir == "" {
		return fmt.Errorf("--work-dir is empty")
	}
	dir, err := filepath.Abs(flagMain.WorkDir)
	if err != nil {
		return err
	}
	flagMain.WorkDir = dir

	if flagMain.NoColor {
		color.NoColor = true
	}
	return nil
}

func printUsageAndExit1(cmd *cobra.Command, args []string) {
	_ = cmd.Usage()
	os.Exit(1)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]interface{}{color.RedString("Error:")}, args...)...)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fatalf("%v", err)
	}
}

func checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		fatalf(format+": %v", append(otherArgs, err)...)
	}
}
