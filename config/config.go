// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/spf13/viper"
)

const (
	configDir  = "config"
	configFile = "vaultd.toml"
)

type StorageType string

const (
	MemoryStorage  StorageType = "memory"
	BadgerStorage  StorageType = "badger"
	BoltStorage    StorageType = "bolt"
	LevelDBStorage StorageType = "leveldb"
)

type LogFormat string

const (
	LogFormatPlain LogFormat = "plain"
	LogFormatJSON  LogFormat = "json"
)

// LogLevel defines the default and per-module log level.
type LogLevel struct {
	Default string
	Modules [][2]string
}

// Parse parses a string such as "error;vault=info" into a LogLevel.
func (l LogLevel) Parse(s string) LogLevel {
	for _, s := range strings.Split(s, ";") {
		s := strings.SplitN(s, "=", 2)
		if len(s) == 1 {
			l.Default = s[0]
		} else {
			l.Modules = append(l.Modules, *(*[2]string)(s))
		}
	}
	return l
}

// SetDefault sets the default log level.
func (l LogLevel) SetDefault(level string) LogLevel {
	l.Default = level
	return l
}

// SetModule sets the log level for a module.
func (l LogLevel) SetModule(module, level string) LogLevel {
	l.Modules = append(l.Modules, [2]string{module, level})
	return l
}

// String converts the log level into a string, for example
// "error;vault=debug".
func (l LogLevel) String() string {
	s := new(strings.Builder)
	s.WriteString(l.Default)
	for _, m := range l.Modules {
		fmt.Fprintf(s, ";%s=%s", m[0], m[1])
	}
	return s.String()
}

var DefaultLogLevels = LogLevel{}.
	SetDefault("info").
	SetModule("badger", "warn").
	SetModule("events", "warn").
	// SetModule("vault", "debug").
	// SetModule("farm", "debug").
	String()

type Config struct {
	RootDir string `toml:"-" mapstructure:"-"`

	Logging Logging `toml:"logging" mapstructure:"logging"`
	Storage Storage `toml:"storage" mapstructure:"storage"`
	API     API     `toml:"api" mapstructure:"api"`
	Metrics Metrics `toml:"metrics" mapstructure:"metrics"`
	Keeper  Keeper  `toml:"keeper" mapstructure:"keeper"`
	Genesis Genesis `toml:"genesis" mapstructure:"genesis"`
}

type Logging struct {
	Level  string    `toml:"level" mapstructure:"level" validate:"required"`
	Format LogFormat `toml:"format" mapstructure:"format" validate:"oneof=plain json"`
	Color  bool      `toml:"color" mapstructure:"color"`
}

type Storage struct {
	Type StorageType `toml:"type" mapstructure:"type" validate:"oneof=memory badger bolt leveldb"`
	Path string      `toml:"path" mapstructure:"path" validate:"required_unless=Type memory"`
}

type API struct {
	ListenAddress string        `toml:"listen-address" mapstructure:"listen-address" validate:"required,hostname_port"`
	ReadTimeout   time.Duration `toml:"read-timeout" mapstructure:"read-timeout" validate:"gte=0"`
	WriteTimeout  time.Duration `toml:"write-timeout" mapstructure:"write-timeout" validate:"gte=0"`

	// DisableAdmin turns off the operator routes (harvest, reinvest, and
	// timelock writes).
	DisableAdmin bool `toml:"disable-admin" mapstructure:"disable-admin"`
}

type Metrics struct {
	Enabled       bool   `toml:"enabled" mapstructure:"enabled"`
	ListenAddress string `toml:"listen-address" mapstructure:"listen-address" validate:"required_if=Enabled true"`
}

// Keeper configures the automated upkeep of the protocol.
type Keeper struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Account string `toml:"account" mapstructure:"account" validate:"required_if=Enabled true"`

	EarnSchedule     string `toml:"earn-schedule" mapstructure:"earn-schedule" validate:"omitempty,cron"`
	ReinvestSchedule string `toml:"reinvest-schedule" mapstructure:"reinvest-schedule" validate:"omitempty,cron"`
	HarvestSchedule  string `toml:"harvest-schedule" mapstructure:"harvest-schedule" validate:"omitempty,cron"`

	// SlippageBps is the tolerated difference between a quote and the
	// minimum accepted output of a swap.
	SlippageBps uint64 `toml:"slippage-bps" mapstructure:"slippage-bps" validate:"lte=10000"`

	// HarvestTTL is how long a harvest remains valid after it is built.
	HarvestTTL time.Duration `toml:"harvest-ttl" mapstructure:"harvest-ttl" validate:"gte=0"`
}

func Default() *Config {
	c := new(Config)
	c.Logging.Level = DefaultLogLevels
	c.Logging.Format = LogFormatPlain
	c.Logging.Color = true
	c.Storage.Type = BadgerStorage
	c.Storage.Path = filepath.Join("data", "vaultd.db")
	c.API.ListenAddress = "127.0.0.1:26660"
	c.API.ReadTimeout = 10 * time.Second
	c.API.WriteTimeout = 30 * time.Second
	c.Metrics.Enabled = true
	c.Metrics.ListenAddress = "127.0.0.1:26661"
	c.Keeper.Enabled = true
	c.Keeper.Account = "keeper"
	c.Keeper.EarnSchedule = "*/5 * * * *"
	c.Keeper.ReinvestSchedule = "@hourly"
	c.Keeper.HarvestSchedule = "0 */6 * * *"
	c.Keeper.SlippageBps = 100
	c.Keeper.HarvestTTL = 5 * time.Minute
	c.Genesis = DevnetGenesis()
	return c
}

func (c *Config) SetRoot(dir string) {
	c.RootDir = dir
}

// StoragePath returns the storage path, relative to the root directory if
// it is not absolute.
func (c *Config) StoragePath() string {
	return MakeAbsolute(c.RootDir, c.Storage.Path)
}

func MakeAbsolute(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// Path returns the path of the configuration file within a root directory.
func Path(dir string) string {
	return filepath.Join(dir, configDir, configFile)
}

func Load(dir string) (*Config, error) {
	config := new(Config)
	err := load(dir, Path(dir), config)
	if err != nil {
		return nil, err
	}

	config.SetRoot(dir)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return config, nil
}

func Store(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	err := os.MkdirAll(filepath.Join(config.RootDir, configDir), 0755)
	if err != nil {
		return err
	}

	f, err := os.Create(Path(config.RootDir))
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(config)
}

func load(dir, file string, c interface{}) error {
	v := viper.New()
	v.SetConfigFile(file)
	v.AddConfigPath(dir)
	v.SetEnvPrefix("VAULTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	err := v.ReadInConfig()
	if err != nil {
		return fmt.Errorf("read: %v", err)
	}

	err = v.Unmarshal(c)
	if err != nil {
		return fmt.Errorf("unmarshal: %v", err)
	}

	return nil
}
