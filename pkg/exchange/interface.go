package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider exposes futures trading for one authenticated account in an
// exchange-agnostic fashion.
type Provider interface {
	// Position lifecycle.
	GetPositions(ctx context.Context, filter PositionFilter) ([]Position, error)
	OpenPosition(ctx context.Context, order Order) (*Position, error)
	UpdatePosition(ctx context.Context, pid string, field UpdateField, value float64) (*Position, error)
	ClosePosition(ctx context.Context, pid string) (*Position, error)
	CloseSide(ctx context.Context, side OrderSide) (decimal.Decimal, error)
	CloseAll(ctx context.Context) (*CloseAllResult, error)
	CancelPosition(ctx context.Context, pid string) (*Position, error)

	// Margin management.
	AddMargin(ctx context.Context, pid string, amount int64) (*Position, error)
	CashIn(ctx context.Context, pid string, amount int64) (*Position, error)

	// Account figures.
	RealizedProfit(ctx context.Context) (decimal.Decimal, error)
	UnrealizedProfit(ctx context.Context) (decimal.Decimal, error)
	MarginWithheld(ctx context.Context) (decimal.Decimal, error)
}
