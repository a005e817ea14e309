package exchange

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Core futures domain types shared across exchange implementations.
// They mirror the LN Markets payloads (single-letter side and type codes)
// while staying venue-neutral at the interface level.

// OrderSide represents position direction.
type OrderSide string

const (
	// OrderSideBuy opens a long.
	OrderSideBuy OrderSide = "b"
	// OrderSideSell opens a short.
	OrderSideSell OrderSide = "s"
)

// Valid reports whether s is a known side.
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// OrderType distinguishes market from limit orders.
type OrderType string

const (
	// OrderTypeMarket fills at the current bid/offer.
	OrderTypeMarket OrderType = "m"
	// OrderTypeLimit rests until Price is reached.
	OrderTypeLimit OrderType = "l"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// PositionFilter selects which position set a listing returns.
type PositionFilter string

const (
	// FilterNone requests the unfiltered listing.
	FilterNone PositionFilter = ""
	// FilterOpen and FilterRunning both select positions that are not closed.
	FilterOpen    PositionFilter = "open"
	FilterRunning PositionFilter = "running"
	FilterClosed  PositionFilter = "closed"
	FilterAll     PositionFilter = "all"
)

// IsRunning reports whether the filter selects the running set.
func (f PositionFilter) IsRunning() bool {
	return f == FilterOpen || f == FilterRunning
}

// UpdateField names a mutable trigger level of a running position.
type UpdateField string

const (
	UpdateStoploss   UpdateField = "stoploss"
	UpdateTakeprofit UpdateField = "takeprofit"
)

// Order describes a new position request. Optional fields are nil when not
// supplied; only non-nil fields reach the wire.
type Order struct {
	Type       OrderType
	Side       OrderSide
	Leverage   float64
	Margin     *int64   // satoshis
	Quantity   *float64 // contracts
	Stoploss   *float64
	Takeprofit *float64
	Price      *float64 // required for limit orders
}

// Position captures a futures contract as reported by the venue.
type Position struct {
	PID         string          `json:"pid"`
	Type        OrderType       `json:"type"`
	Side        OrderSide       `json:"side"`
	Leverage    decimal.Decimal `json:"leverage"`
	Margin      decimal.Decimal `json:"margin"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	Liquidation decimal.Decimal `json:"liquidation"`
	Stoploss    decimal.Decimal `json:"stoploss"`
	Takeprofit  decimal.Decimal `json:"takeprofit"`
	Pl          decimal.Decimal `json:"pl"`
	Running     bool            `json:"running"`
	Closed      bool            `json:"closed"`
	Canceled    bool            `json:"canceled"`
	CreationTS  int64           `json:"creation_ts,omitempty"`
	ClosedTS    int64           `json:"closed_ts,omitempty"`
}

// UnmarshalJSON accepts both "pid" and "id" as the identifier key.
func (p *Position) UnmarshalJSON(data []byte) error {
	type alias Position
	aux := struct {
		*alias
		ID string `json:"id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.PID == "" {
		p.PID = aux.ID
	}
	return nil
}

// IsActive reports whether the position can still be acted upon.
func (p Position) IsActive() bool {
	return !p.Closed && !p.Canceled
}

// PositionSet is the result of a listing call. Ordering is server-defined.
type PositionSet struct {
	Filter    PositionFilter
	Positions []Position
}

// CloseAllResult is the venue's answer to a bulk close.
type CloseAllResult struct {
	Pl        decimal.Decimal
	Positions []Position
}

// Ptr returns a pointer to v, for filling optional Order fields.
func Ptr[T any](v T) *T {
	return &v
}
