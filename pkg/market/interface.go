package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider exposes exchange-agnostic market data.
type Provider interface {
	// Snapshot returns the latest index and quote for symbol.
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
	// Status reports whether the venue currently accepts new positions.
	Status(ctx context.Context) (*Status, error)
}

// Snapshot captures the latest price view of a trading symbol.
type Snapshot struct {
	Symbol    string
	Index     decimal.Decimal // reference index price
	Bid       decimal.Decimal
	Offer     decimal.Decimal
	IndexTime time.Time
	QuoteTime time.Time
}

// Mid returns the midpoint of bid and offer.
func (s Snapshot) Mid() decimal.Decimal {
	return s.Bid.Add(s.Offer).Div(decimal.NewFromInt(2))
}

// Spread returns offer minus bid.
func (s Snapshot) Spread() decimal.Decimal {
	return s.Offer.Sub(s.Bid)
}

// Status summarises venue availability.
type Status struct {
	NewPositions bool
	Raw          map[string]any // venue-specific fields
}
