package config

import (
	"lnmarkets-api/pkg/exchange"
	"lnmarkets-api/pkg/market"
)

// ExchangeConfig returns the hydrated exchange section, falling back to
// etc/exchange.yaml under the project root.
func (c *Config) ExchangeConfig() (*exchange.Config, error) {
	if c == nil {
		c = &Config{}
	}
	return c.Exchange.Resolve("etc/exchange.yaml", exchange.LoadConfig)
}

// MarketConfig returns the hydrated market section, falling back to
// etc/market.yaml under the project root.
func (c *Config) MarketConfig() (*market.Config, error) {
	if c == nil {
		c = &Config{}
	}
	return c.Market.Resolve("etc/market.yaml", market.LoadConfig)
}
