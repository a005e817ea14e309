package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/pkg/confkit"
	exchangepkg "lnmarkets-api/pkg/exchange"
	marketpkg "lnmarkets-api/pkg/market"
)

// MonitorConf drives the periodic account report of cmd/monitor.
type MonitorConf struct {
	Interval time.Duration `json:",default=1m"`
	Symbol   string        `json:",default=BTCUSD"`

	// MarginAlert logs an error when margin withheld exceeds this many
	// satoshis. Zero disables the alert.
	MarginAlert int64 `json:",optional"`

	// JournalDir, when set, receives one JSON file per report.
	JournalDir string `json:",optional"`
}

type Config struct {
	Name string `json:",default=lnmarkets"`
	// Env indicates the running environment: test | dev | prod
	// Defaults to test. In test mode providers target testnet.
	Env string       `json:",default=test"`
	Log logx.LogConf `json:",optional"`

	Exchange confkit.Section[exchangepkg.Config] `json:",optional"`
	Market   confkit.Section[marketpkg.Config]   `json:",optional"`
	Monitor  MonitorConf                          `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	cfg, err := confkit.LoadFile[Config](absPath, true)
	if err != nil {
		return nil, err
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if c.Monitor.Interval < time.Second {
		return errors.New("config: monitor.interval must be at least 1s")
	}
	if c.Monitor.MarginAlert < 0 {
		return errors.New("config: monitor.marginAlert cannot be negative")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	base := c.baseDir

	if err := c.Exchange.Hydrate(base, exchangepkg.LoadConfig); err != nil {
		return fmt.Errorf("load exchange config: %w", err)
	}
	if err := c.Market.Hydrate(base, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	return nil
}

// applyEnv points every provider at testnet outside dev and prod.
func (c *Config) applyEnv() {
	if !c.IsTestEnv() {
		return
	}
	if c.Exchange.Configured() {
		for _, p := range c.Exchange.Value.Providers {
			p.Testnet = true
		}
	}
	if c.Market.Configured() {
		for _, p := range c.Market.Value.Providers {
			p.Testnet = true
		}
	}
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
