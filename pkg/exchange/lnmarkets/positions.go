package lnmarkets

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/pkg/exchange"
)

// ListPositions fetches a position set. FilterNone sends no type parameter.
func (c *Client) ListPositions(ctx context.Context, cred Credential, filter exchange.PositionFilter) (*exchange.PositionSet, error) {
	keyword := c.endpoints.filterKeyword(filter)
	var query url.Values
	if keyword != "" {
		query = url.Values{"type": {keyword}}
	}
	resp, err := c.send(ctx, call{
		op:     "get positions",
		method: http.MethodGet,
		path:   c.endpoints.Positions,
		cred:   cred,
		auth:   true,
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	positions, err := decodePositionSet("get positions", resp.Body, keyword)
	if err != nil {
		return nil, err
	}
	return &exchange.PositionSet{Filter: filter, Positions: positions}, nil
}

// UpdatePosition moves the stoploss or takeprofit of a running position.
// The value is not range-checked locally.
func (c *Client) UpdatePosition(ctx context.Context, cred Credential, pid string, field exchange.UpdateField, value float64) (*exchange.Position, error) {
	if err := requirePID(pid); err != nil {
		return nil, err
	}
	if field != exchange.UpdateStoploss && field != exchange.UpdateTakeprofit {
		return nil, invalid("type", ErrInvalidUpdateField)
	}
	resp, err := c.send(ctx, call{
		op:     "update position",
		method: http.MethodPut,
		path:   c.endpoints.Positions,
		cred:   cred,
		auth:   true,
		payload: map[string]any{
			"pid":   pid,
			"type":  string(field),
			"value": value,
		},
	})
	if err != nil {
		return nil, err
	}
	return decodePosition("update position", resp.Body)
}

// ClosePosition closes a running position. Closing one that is already
// closed surfaces whatever the server answers.
func (c *Client) ClosePosition(ctx context.Context, cred Credential, pid string) (*exchange.Position, error) {
	if err := requirePID(pid); err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, call{
		op:     "close position",
		method: http.MethodDelete,
		path:   c.endpoints.Positions,
		cred:   cred,
		auth:   true,
		query:  url.Values{"pid": {pid}},
	})
	if err != nil {
		return nil, err
	}
	return decodePosition("close position", resp.Body)
}

// IsOpen reports whether pid is in the running set. Absence is false, not
// an error.
func (c *Client) IsOpen(ctx context.Context, cred Credential, pid string) (bool, error) {
	set, err := c.ListPositions(ctx, cred, exchange.FilterRunning)
	if err != nil {
		return false, err
	}
	for _, p := range set.Positions {
		if p.PID == pid {
			return true, nil
		}
	}
	return false, nil
}

// CloseAllLongs closes every running buy position and returns the summed pl.
func (c *Client) CloseAllLongs(ctx context.Context, cred Credential) (decimal.Decimal, error) {
	return c.CloseSide(ctx, cred, exchange.OrderSideBuy)
}

// CloseAllShorts closes every running sell position and returns the summed pl.
func (c *Client) CloseAllShorts(ctx context.Context, cred Credential) (decimal.Decimal, error) {
	return c.CloseSide(ctx, cred, exchange.OrderSideSell)
}

// CloseSide closes the running positions on one side, one at a time in
// listing order. The first failing close aborts the run and the pl summed
// so far is discarded. Positions closed before the failure stay closed.
// Nothing guards against another session closing the same positions
// between the listing and the closes.
func (c *Client) CloseSide(ctx context.Context, cred Credential, side exchange.OrderSide) (decimal.Decimal, error) {
	if !side.Valid() {
		return decimal.Zero, invalid("side", ErrInvalidSide)
	}
	set, err := c.ListPositions(ctx, cred, exchange.FilterRunning)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	closed := 0
	for _, p := range set.Positions {
		if p.Side != side || !p.IsActive() {
			continue
		}
		result, err := c.ClosePosition(ctx, cred, p.PID)
		if err != nil {
			logx.WithContext(ctx).Errorw("lnmarkets: close side aborted",
				logx.Field("side", string(side)),
				logx.Field("pid", p.PID),
				logx.Field("closed", closed),
				logx.Field("error", err.Error()))
			return decimal.Zero, err
		}
		total = total.Add(result.Pl)
		closed++
	}
	logx.WithContext(ctx).Infow("lnmarkets: closed side",
		logx.Field("side", string(side)),
		logx.Field("closed", closed),
		logx.Field("pl", total.String()))
	return total, nil
}

// CloseAll closes every running position in one request and returns the
// pl reported by the server.
func (c *Client) CloseAll(ctx context.Context, cred Credential) (*exchange.CloseAllResult, error) {
	resp, err := c.send(ctx, call{
		op:     "close all positions",
		method: http.MethodDelete,
		path:   c.endpoints.CloseAll,
		cred:   cred,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return decodeCloseAll("close all positions", resp.Body)
}

// AddMargin adds amount satoshis of collateral to a running position.
func (c *Client) AddMargin(ctx context.Context, cred Credential, pid string, amount int64) (*exchange.Position, error) {
	return c.amountCall(ctx, cred, "add margin", c.endpoints.AddMargin, pid, amount)
}

// CashIn withdraws amount satoshis of unrealized profit from a running
// position without closing it.
func (c *Client) CashIn(ctx context.Context, cred Credential, pid string, amount int64) (*exchange.Position, error) {
	return c.amountCall(ctx, cred, "cash in", c.endpoints.CashIn, pid, amount)
}

func (c *Client) amountCall(ctx context.Context, cred Credential, op, path, pid string, amount int64) (*exchange.Position, error) {
	if err := requirePID(pid); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, invalid("amount", ErrInvalidAmount)
	}
	resp, err := c.send(ctx, call{
		op:      op,
		method:  http.MethodPost,
		path:    path,
		cred:    cred,
		auth:    true,
		payload: map[string]any{"amount": amount, "pid": pid},
	})
	if err != nil {
		return nil, err
	}
	return decodePosition(op, resp.Body)
}

// CancelPosition cancels an unfilled limit order. The server decides
// whether the position is still cancelable.
func (c *Client) CancelPosition(ctx context.Context, cred Credential, pid string) (*exchange.Position, error) {
	if err := requirePID(pid); err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, call{
		op:      "cancel position",
		method:  http.MethodPost,
		path:    c.endpoints.Cancel,
		cred:    cred,
		auth:    true,
		payload: map[string]any{"pid": pid},
	})
	if err != nil {
		return nil, err
	}
	return decodePosition("cancel position", resp.Body)
}

func requirePID(pid string) error {
	if strings.TrimSpace(pid) == "" {
		return invalid("pid", ErrPIDRequired)
	}
	return nil
}
