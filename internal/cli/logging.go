package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/internal/config"
	"lnmarkets-api/pkg/confkit"
	"lnmarkets-api/pkg/exchange"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
// Credentials are never printed.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Name: %s", cfg.Name),
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Log mode: %s", orDefault(cfg.Log.Mode, "console")),
		sectionLine("Exchange config", cfg.Exchange),
		sectionLine("Market config", cfg.Market),
		fmt.Sprintf("Monitor: every %s on %s", cfg.Monitor.Interval, cfg.Monitor.Symbol),
	}
	if cfg.Exchange.Configured() {
		lines = append(lines, exchangeLines(cfg.Exchange.Value)...)
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func exchangeLines(cfg *exchange.Config) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		p := cfg.Providers[name]
		network := "mainnet"
		if p.Testnet {
			network = "testnet"
		}
		lines = append(lines, fmt.Sprintf("Exchange %s: %s %s profile=%s auth=%s",
			name, p.Type, network, orDefault(p.Profile, "v1"), authKind(p)))
	}
	return lines
}

func authKind(p *exchange.ProviderConfig) string {
	switch {
	case p.Token != "":
		return "token"
	case p.Login != "":
		return "login"
	default:
		return "none"
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
