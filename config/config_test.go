// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	// Create
	cfg := Default()
	cfg.SetRoot(dir)
	cfg.API.ListenAddress = "0.0.0.0:8080"
	cfg.Keeper.HarvestTTL = 90 * time.Second

	// Store
	require.NoError(t, Store(cfg))
	require.FileExists(t, filepath.Join(dir, "config", "vaultd.toml"))

	// Load
	lcfg, err := Load(dir)
	require.NoError(t, err)

	// Should be equal
	require.Equal(t, cfg, lcfg)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0755))
	require.NoError(t, os.WriteFile(Path(dir), []byte(`
[storage]
type = "etcd"
`), 0644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cases := map[string]func(c *Config){
		"bad storage":      func(c *Config) { c.Storage.Type = "etcd" },
		"badger path":      func(c *Config) { c.Storage.Path = "" },
		"bolt path":        func(c *Config) { c.Storage.Type = BoltStorage; c.Storage.Path = "" },
		"bad listen":       func(c *Config) { c.API.ListenAddress = "nowhere" },
		"bad cron":         func(c *Config) { c.Keeper.EarnSchedule = "every now and then" },
		"slippage":         func(c *Config) { c.Keeper.SlippageBps = 10_001 },
		"keeper account":   func(c *Config) { c.Keeper.Account = "" },
		"log format":       func(c *Config) { c.Logging.Format = "xml" },
		"fee":              func(c *Config) { c.Genesis.Vaults[0].PerformanceFeeBps = 20_000 },
		"amount":           func(c *Config) { c.Genesis.Balances[0].Amount = "1.5" },
		"negative amount":  func(c *Config) { c.Genesis.Balances[0].Amount = "-1" },
		"source kind":      func(c *Config) { c.Genesis.Sources[0].Kind = "vault" },
		"strategy source":  func(c *Config) { c.Genesis.Strategies[0].Source = "" },
		"pair":             func(c *Config) { c.Genesis.Pairs[0].B = c.Genesis.Pairs[0].A },
		"pool stakes both": func(c *Config) { c.Genesis.Farm.Pools[0].Asset = "DAI" },
		"pool stakes none": func(c *Config) { c.Genesis.Farm.Pools[0].Vault = "" },
		"timelock delay":   func(c *Config) { c.Genesis.Timelock.Delay = time.Hour },
		"buyback asset":    func(c *Config) { c.Genesis.Harvester.BuybackBps = 100 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			require.Error(t, c.Validate())
		})
	}

	c := Default()
	c.Storage.Type = MemoryStorage
	c.Storage.Path = ""
	c.Metrics.Enabled = false
	c.Metrics.ListenAddress = ""
	require.NoError(t, c.Validate())
}

func TestLogLevel(t *testing.T) {
	l := LogLevel{}.Parse("error;vault=debug;keeper=info")
	require.Equal(t, "error", l.Default)
	require.Equal(t, [][2]string{{"vault", "debug"}, {"keeper", "info"}}, l.Modules)
	require.Equal(t, "error;vault=debug;keeper=info", l.String())
	require.Equal(t, "info;badger=warn;events=warn", DefaultLogLevels)
}
