// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/daemon"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon",
	Args:  cobra.NoArgs,
	Run:   runNode,
}

var flagRun struct {
	CiStopAfter time.Duration
}

func init() {
	cmdMain.AddCommand(cmdRun)

	cmdRun.Flags().DurationVar(&flagRun.CiStopAfter, "ci-stop-after", 0, "FOR CI ONLY - stop the node after some time")
	cmdRun.Flag("ci-stop-after").Hidden = true
}

func runNode(*cobra.Command, []string) {
	cfg, err := config.Load(flagMain.WorkDir)
	checkf(err, "load configuration")
	if flagMain.LogLevel != "" {
		cfg.Logging.Level = flagMain.LogLevel
	}

	// No escape codes in redirected output
	if flagMain.NoColor || !term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.Logging.Color = false
	}

	logger, err := daemon.NewLogger(cfg.Logging, os.Stderr)
	checkf(err, "logging")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if flagRun.CiStopAfter > 0 {
		ctx, cancel = context.WithTimeout(ctx, flagRun.CiStopAfter)
		defer cancel()
	}

	d, err := daemon.New(ctx, cfg, logger)
	checkf(err, "start")
	check(d.Run(ctx))
}
