package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lnmarkets-api/pkg/exchange"
)

var (
	defaultMarkPrice = decimal.NewFromInt(60000)
	defaultBalance   = decimal.NewFromInt(1_000_000)
	satsPerBTC       = decimal.NewFromInt(100_000_000)
)

var (
	ErrUnknownPosition = errors.New("sim: position not found")
	ErrNotRunning      = errors.New("sim: position is not running")
	ErrNotCancelable   = errors.New("sim: only unfilled limit orders can be canceled")
	ErrInsufficient    = errors.New("sim: insufficient funds")
	ErrInvalidSize     = errors.New("sim: margin and quantity must be positive")
	ErrInvalidPrice    = errors.New("sim: invalid price")
	ErrInvalidLeverage = errors.New("sim: leverage must be positive")
)

// Provider is a paper-trading venue that keeps inverse BTCUSD futures
// in-memory. P/L is quoted in satoshis: quantity * (1e8/entry - 1e8/mark)
// for longs, the negation for shorts.
type Provider struct {
	mu sync.Mutex

	mark    decimal.Decimal
	balance decimal.Decimal
	now     func() time.Time

	order     []string // pids in creation order
	positions map[string]*exchange.Position
}

// Option customises the simulator.
type Option func(*Provider)

// WithMarkPrice sets the initial mark price.
func WithMarkPrice(price decimal.Decimal) Option {
	return func(p *Provider) {
		if price.IsPositive() {
			p.mark = price
		}
	}
}

// WithBalance sets the initial account balance in satoshis.
func WithBalance(sats int64) Option {
	return func(p *Provider) {
		if sats > 0 {
			p.balance = decimal.NewFromInt(sats)
		}
	}
}

// New constructs a new simulator instance.
func New(opts ...Option) *Provider {
	p := &Provider{
		mark:      defaultMarkPrice,
		balance:   defaultBalance,
		now:       time.Now,
		positions: make(map[string]*exchange.Position),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func init() {
	exchange.RegisterProvider("sim", func(name string, cfg *exchange.ProviderConfig) (exchange.Provider, error) {
		return New(), nil
	})
}

// Balance returns the free balance in satoshis.
func (p *Provider) Balance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// SetMarkPrice moves the market, fills crossing limit orders and
// re-marks running positions.
func (p *Provider) SetMarkPrice(ctx context.Context, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("sim: mark price must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mark = price
	for _, pid := range p.order {
		pos := p.positions[pid]
		if pos.IsActive() && !pos.Running && crosses(pos, price) {
			pos.Running = true
			pos.EntryPrice = pos.Price
		}
		p.remarkLocked(pos)
	}
	return nil
}

func crosses(pos *exchange.Position, mark decimal.Decimal) bool {
	if pos.Side == exchange.OrderSideBuy {
		return mark.LessThanOrEqual(pos.Price)
	}
	return mark.GreaterThanOrEqual(pos.Price)
}

func (p *Provider) remarkLocked(pos *exchange.Position) {
	if !pos.Running || pos.Closed {
		return
	}
	pos.Pl = inversePL(pos.Side, pos.Quantity, pos.EntryPrice, p.mark)
}

func inversePL(side exchange.OrderSide, qty, entry, exit decimal.Decimal) decimal.Decimal {
	if !entry.IsPositive() || !exit.IsPositive() {
		return decimal.Zero
	}
	pl := qty.Mul(satsPerBTC.Div(entry).Sub(satsPerBTC.Div(exit))).Round(0)
	if side == exchange.OrderSideSell {
		return pl.Neg()
	}
	return pl
}

// GetPositions lists positions matching filter.
func (p *Provider) GetPositions(ctx context.Context, filter exchange.PositionFilter) ([]exchange.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]exchange.Position, 0, len(p.order))
	for _, pid := range p.order {
		pos := p.positions[pid]
		switch {
		case filter.IsRunning() && !pos.IsActive():
			continue
		case filter == exchange.FilterClosed && !pos.Closed:
			continue
		}
		out = append(out, *pos)
	}
	return out, nil
}

// OpenPosition fills market orders at the mark and rests limit orders.
func (p *Provider) OpenPosition(ctx context.Context, order exchange.Order) (*exchange.Position, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	price := p.mark
	if order.Type == exchange.OrderTypeLimit {
		price = decimal.NewFromFloat(*order.Price)
	}
	leverage := decimal.NewFromFloat(order.Leverage)
	var margin, qty decimal.Decimal
	if order.Margin != nil {
		margin = decimal.NewFromInt(*order.Margin)
		qty = margin.Mul(leverage).Mul(price).Div(satsPerBTC).Round(2)
	} else {
		qty = decimal.NewFromFloat(*order.Quantity)
		margin = qty.Mul(satsPerBTC).Div(price.Mul(leverage)).Ceil()
	}
	if qty.IsZero() {
		return nil, fmt.Errorf("%w: order sizes to zero contracts", ErrInvalidSize)
	}
	if margin.GreaterThan(p.balance) {
		return nil, ErrInsufficient
	}
	p.balance = p.balance.Sub(margin)

	pos := &exchange.Position{
		PID:        uuid.NewString(),
		Type:       order.Type,
		Side:       order.Side,
		Leverage:   leverage,
		Margin:     margin,
		Quantity:   qty,
		Price:      price,
		CreationTS: p.now().UnixMilli(),
	}
	if order.Stoploss != nil {
		pos.Stoploss = decimal.NewFromFloat(*order.Stoploss)
	}
	if order.Takeprofit != nil {
		pos.Takeprofit = decimal.NewFromFloat(*order.Takeprofit)
	}
	if order.Type == exchange.OrderTypeMarket || crosses(pos, p.mark) {
		pos.Running = true
		pos.EntryPrice = price
	}
	p.positions[pos.PID] = pos
	p.order = append(p.order, pos.PID)
	out := *pos
	return &out, nil
}

func validateOrder(o exchange.Order) error {
	switch {
	case !o.Type.Valid():
		return fmt.Errorf("sim: %w", exchange.ErrInvalidOrderType)
	case !o.Side.Valid():
		return fmt.Errorf("sim: %w", exchange.ErrInvalidSide)
	case o.Margin == nil && o.Quantity == nil:
		return fmt.Errorf("sim: %w", exchange.ErrMarginOrQuantityRequired)
	case o.Type == exchange.OrderTypeLimit && o.Price == nil:
		return fmt.Errorf("sim: %w", exchange.ErrLimitPriceRequired)
	case o.Type == exchange.OrderTypeLimit && !finitePositive(*o.Price):
		return fmt.Errorf("%w: %v", ErrInvalidPrice, *o.Price)
	case o.Margin != nil && *o.Margin <= 0:
		return fmt.Errorf("%w: margin %d", ErrInvalidSize, *o.Margin)
	case o.Quantity != nil && !finitePositive(*o.Quantity):
		return fmt.Errorf("%w: quantity %v", ErrInvalidSize, *o.Quantity)
	case !finitePositive(o.Leverage):
		return fmt.Errorf("%w: %v", ErrInvalidLeverage, o.Leverage)
	case o.Stoploss != nil && !finite(*o.Stoploss), o.Takeprofit != nil && !finite(*o.Takeprofit):
		return fmt.Errorf("%w: trigger level is not a number", ErrInvalidPrice)
	}
	return nil
}

// decimal cannot represent NaN or infinities.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finitePositive(f float64) bool {
	return f > 0 && finite(f)
}

// UpdatePosition moves a trigger level.
func (p *Provider) UpdatePosition(ctx context.Context, pid string, field exchange.UpdateField, value float64) (*exchange.Position, error) {
	return p.mutate(pid, func(pos *exchange.Position) error {
		if !pos.IsActive() {
			return ErrNotRunning
		}
		if !finite(value) {
			return fmt.Errorf("%w: %v", ErrInvalidPrice, value)
		}
		switch field {
		case exchange.UpdateStoploss:
			pos.Stoploss = decimal.NewFromFloat(value)
		case exchange.UpdateTakeprofit:
			pos.Takeprofit = decimal.NewFromFloat(value)
		default:
			return fmt.Errorf("sim: unknown field %q", field)
		}
		return nil
	})
}

// ClosePosition settles a running position at the mark.
func (p *Provider) ClosePosition(ctx context.Context, pid string) (*exchange.Position, error) {
	return p.mutate(pid, p.closeLocked)
}

func (p *Provider) closeLocked(pos *exchange.Position) error {
	if !pos.Running || !pos.IsActive() {
		return ErrNotRunning
	}
	p.remarkLocked(pos)
	pos.Running = false
	pos.Closed = true
	pos.ClosedTS = p.now().UnixMilli()
	p.balance = p.balance.Add(pos.Margin).Add(pos.Pl)
	return nil
}

// CloseSide closes every running position on side in creation order.
func (p *Provider) CloseSide(ctx context.Context, side exchange.OrderSide) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := decimal.Zero
	for _, pid := range p.order {
		pos := p.positions[pid]
		if pos.Side != side || !pos.Running || !pos.IsActive() {
			continue
		}
		if err := p.closeLocked(pos); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(pos.Pl)
	}
	return total, nil
}

// CloseAll closes every running position.
func (p *Provider) CloseAll(ctx context.Context) (*exchange.CloseAllResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := &exchange.CloseAllResult{Pl: decimal.Zero}
	for _, pid := range p.order {
		pos := p.positions[pid]
		if !pos.Running || !pos.IsActive() {
			continue
		}
		if err := p.closeLocked(pos); err != nil {
			return nil, err
		}
		result.Pl = result.Pl.Add(pos.Pl)
		result.Positions = append(result.Positions, *pos)
	}
	return result, nil
}

// CancelPosition cancels a resting limit order and refunds its margin.
func (p *Provider) CancelPosition(ctx context.Context, pid string) (*exchange.Position, error) {
	return p.mutate(pid, func(pos *exchange.Position) error {
		if pos.Running || !pos.IsActive() {
			return ErrNotCancelable
		}
		pos.Canceled = true
		p.balance = p.balance.Add(pos.Margin)
		return nil
	})
}

// AddMargin moves amount satoshis from the balance into a position.
func (p *Provider) AddMargin(ctx context.Context, pid string, amount int64) (*exchange.Position, error) {
	return p.mutate(pid, func(pos *exchange.Position) error {
		if !pos.IsActive() {
			return ErrNotRunning
		}
		a := decimal.NewFromInt(amount)
		if amount <= 0 || a.GreaterThan(p.balance) {
			return ErrInsufficient
		}
		p.balance = p.balance.Sub(a)
		pos.Margin = pos.Margin.Add(a)
		return nil
	})
}

// CashIn takes amount satoshis of profit out of a running position. The
// entry price is moved so the remaining pl drops by amount.
func (p *Provider) CashIn(ctx context.Context, pid string, amount int64) (*exchange.Position, error) {
	return p.mutate(pid, func(pos *exchange.Position) error {
		if !pos.Running || !pos.IsActive() {
			return ErrNotRunning
		}
		p.remarkLocked(pos)
		a := decimal.NewFromInt(amount)
		if amount <= 0 || a.GreaterThan(pos.Pl) {
			return ErrInsufficient
		}
		// Solve qty*(1e8/entry' - 1e8/mark) = pl - a for entry' (longs).
		remaining := pos.Pl.Sub(a)
		if pos.Side == exchange.OrderSideSell {
			remaining = remaining.Neg()
		}
		inv := satsPerBTC.Div(p.mark).Add(remaining.Div(pos.Quantity))
		pos.EntryPrice = satsPerBTC.Div(inv)
		p.remarkLocked(pos)
		p.balance = p.balance.Add(a)
		return nil
	})
}

// RealizedProfit sums pl over closed positions.
func (p *Provider) RealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	closed, _ := p.GetPositions(ctx, exchange.FilterClosed)
	return exchange.CalculateProfit(closed), nil
}

// UnrealizedProfit sums pl over running positions.
func (p *Provider) UnrealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	running, _ := p.GetPositions(ctx, exchange.FilterRunning)
	return exchange.CalculateProfit(running), nil
}

// MarginWithheld sums margin over running positions and resting orders.
func (p *Provider) MarginWithheld(ctx context.Context) (decimal.Decimal, error) {
	running, _ := p.GetPositions(ctx, exchange.FilterRunning)
	return exchange.MarginWithheld(running), nil
}

func (p *Provider) mutate(pid string, fn func(pos *exchange.Position) error) (*exchange.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPosition, pid)
	}
	if err := fn(pos); err != nil {
		return nil, err
	}
	out := *pos
	return &out, nil
}

var _ exchange.Provider = (*Provider)(nil)
