package lnmarkets

import (
	"context"

	"github.com/shopspring/decimal"

	"lnmarkets-api/pkg/exchange"
)

// RealizedProfit sums pl over the closed set.
func (c *Client) RealizedProfit(ctx context.Context, cred Credential) (decimal.Decimal, error) {
	return c.sumOver(ctx, cred, exchange.FilterClosed, exchange.CalculateProfit)
}

// UnrealizedProfit sums pl over the running set.
func (c *Client) UnrealizedProfit(ctx context.Context, cred Credential) (decimal.Decimal, error) {
	return c.sumOver(ctx, cred, exchange.FilterRunning, exchange.CalculateProfit)
}

// MarginWithheld sums margin over the running set.
func (c *Client) MarginWithheld(ctx context.Context, cred Credential) (decimal.Decimal, error) {
	return c.sumOver(ctx, cred, exchange.FilterRunning, exchange.MarginWithheld)
}

func (c *Client) sumOver(ctx context.Context, cred Credential, filter exchange.PositionFilter, sum func([]exchange.Position) decimal.Decimal) (decimal.Decimal, error) {
	set, err := c.ListPositions(ctx, cred, filter)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(set.Positions), nil
}
