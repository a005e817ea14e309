package lnmarkets

import (
	"context"
	"net/http"

	"lnmarkets-api/pkg/exchange"
)

// validateOrder enforces the local preconditions of a new position. It
// never touches the network. Supplying both margin and quantity is
// accepted; margin then takes precedence on the wire.
func validateOrder(o exchange.Order) error {
	if !o.Type.Valid() {
		return invalid("type", ErrInvalidOrderType)
	}
	if !o.Side.Valid() {
		return invalid("side", ErrInvalidSide)
	}
	if o.Margin == nil && o.Quantity == nil {
		return invalid("margin", ErrMarginOrQuantityRequired)
	}
	if o.Type == exchange.OrderTypeLimit && o.Price == nil {
		return invalid("price", ErrLimitPriceRequired)
	}
	return nil
}

// orderPayload builds the sparse create body: optional keys appear only
// when set, price only for limit orders.
func orderPayload(o exchange.Order) map[string]any {
	payload := map[string]any{
		"type":     string(o.Type),
		"side":     string(o.Side),
		"leverage": o.Leverage,
	}
	if o.Margin != nil {
		payload["margin"] = *o.Margin
	} else if o.Quantity != nil {
		payload["quantity"] = *o.Quantity
	}
	if o.Stoploss != nil {
		payload["stoploss"] = *o.Stoploss
	}
	if o.Takeprofit != nil {
		payload["takeprofit"] = *o.Takeprofit
	}
	if o.Type == exchange.OrderTypeLimit {
		payload["price"] = *o.Price
	}
	return payload
}

// CreatePosition validates and submits a new position.
func (c *Client) CreatePosition(ctx context.Context, cred Credential, o exchange.Order) (*exchange.Position, error) {
	if err := validateOrder(o); err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, call{
		op:      "create position",
		method:  http.MethodPost,
		path:    c.endpoints.Positions,
		cred:    cred,
		auth:    true,
		payload: orderPayload(o),
	})
	if err != nil {
		return nil, err
	}
	return decodePosition("create position", resp.Body)
}

// Buy opens a long at market.
func (c *Client) Buy(ctx context.Context, cred Credential, o exchange.Order) (*exchange.Position, error) {
	return c.CreatePosition(ctx, cred, fixed(o, exchange.OrderTypeMarket, exchange.OrderSideBuy, nil))
}

// Sell opens a short at market.
func (c *Client) Sell(ctx context.Context, cred Credential, o exchange.Order) (*exchange.Position, error) {
	return c.CreatePosition(ctx, cred, fixed(o, exchange.OrderTypeMarket, exchange.OrderSideSell, nil))
}

// LimitBuy places a long limit order at price.
func (c *Client) LimitBuy(ctx context.Context, cred Credential, price float64, o exchange.Order) (*exchange.Position, error) {
	return c.CreatePosition(ctx, cred, fixed(o, exchange.OrderTypeLimit, exchange.OrderSideBuy, &price))
}

// LimitSell places a short limit order at price.
func (c *Client) LimitSell(ctx context.Context, cred Credential, price float64, o exchange.Order) (*exchange.Position, error) {
	return c.CreatePosition(ctx, cred, fixed(o, exchange.OrderTypeLimit, exchange.OrderSideSell, &price))
}

func fixed(o exchange.Order, kind exchange.OrderType, side exchange.OrderSide, price *float64) exchange.Order {
	o.Type = kind
	o.Side = side
	o.Price = price
	return o
}
