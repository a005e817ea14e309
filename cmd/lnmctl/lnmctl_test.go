package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lnmarkets-api/pkg/exchange"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetPositions(ctx context.Context, filter exchange.PositionFilter) ([]exchange.Position, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]exchange.Position), args.Error(1)
}

func (m *mockProvider) OpenPosition(ctx context.Context, order exchange.Order) (*exchange.Position, error) {
	args := m.Called(ctx, order)
	return positionArg(args, 0), args.Error(1)
}

func (m *mockProvider) UpdatePosition(ctx context.Context, pid string, field exchange.UpdateField, value float64) (*exchange.Position, error) {
	args := m.Called(ctx, pid, field, value)
	return positionArg(args, 0), args.Error(1)
}

func (m *mockProvider) ClosePosition(ctx context.Context, pid string) (*exchange.Position, error) {
	args := m.Called(ctx, pid)
	return positionArg(args, 0), args.Error(1)
}

func (m *mockProvider) CloseSide(ctx context.Context, side exchange.OrderSide) (decimal.Decimal, error) {
	args := m.Called(ctx, side)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockProvider) CloseAll(ctx context.Context) (*exchange.CloseAllResult, error) {
	args := m.Called(ctx)
	var res *exchange.CloseAllResult
	if v := args.Get(0); v != nil {
		res = v.(*exchange.CloseAllResult)
	}
	return res, args.Error(1)
}

func (m *mockProvider) CancelPosition(ctx context.Context, pid string) (*exchange.Position, error) {
	args := m.Called(ctx, pid)
	return positionArg(args, 0), args.Error(1)
}

func (m *mockProvider) AddMargin(ctx context.Context, pid string, amount int64) (*exchange.Position, error) {
	args := m.Called(ctx, pid, amount)
	return positionArg(args, 0), args.Error(1)
}

func (m *mockProvider) CashIn(ctx context.Context, pid string, amount int64) (*exchange.Position, error) {
	args := m.Called(ctx, pid, amount)
	return positionArg(args, 0), args.Error(1)
}

func (m *mockProvider) RealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockProvider) UnrealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockProvider) MarginWithheld(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func positionArg(args mock.Arguments, i int) *exchange.Position {
	if v := args.Get(i); v != nil {
		return v.(*exchange.Position)
	}
	return nil
}

func run(t *testing.T, p exchange.Provider, argv ...string) (string, error) {
	t.Helper()
	rc := &rootConfig{resolve: func(*rootConfig) (exchange.Provider, error) { return p, nil }}
	cmd := newRootCmd(rc)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(argv)
	err := cmd.Execute()
	return out.String(), err
}

func TestOpenMarketBuy(t *testing.T) {
	p := &mockProvider{}
	want := exchange.Order{
		Type:     exchange.OrderTypeMarket,
		Side:     exchange.OrderSideBuy,
		Leverage: 2,
		Margin:   exchange.Ptr[int64](1000),
	}
	p.On("OpenPosition", mock.Anything, want).Return(&exchange.Position{PID: "p-1"}, nil)

	out, err := run(t, p, "open", "--side", "buy", "--leverage", "2", "--margin", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, `"pid": "p-1"`)
	p.AssertExpectations(t)
}

func TestOpenLimitSellWithTriggers(t *testing.T) {
	p := &mockProvider{}
	p.On("OpenPosition", mock.Anything, mock.MatchedBy(func(o exchange.Order) bool {
		return o.Type == exchange.OrderTypeLimit &&
			o.Side == exchange.OrderSideSell &&
			o.Margin == nil &&
			o.Quantity != nil && *o.Quantity == 10 &&
			o.Price != nil && *o.Price == 40000 &&
			o.Stoploss != nil && *o.Stoploss == 42000 &&
			o.Takeprofit == nil
	})).Return(&exchange.Position{PID: "p-2"}, nil)

	_, err := run(t, p, "open", "--side", "sell", "--type", "limit", "--price", "40000",
		"--leverage", "5", "--quantity", "10", "--stoploss", "42000")
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestOpenRejectsUnknownSide(t *testing.T) {
	p := &mockProvider{}
	_, err := run(t, p, "open", "--side", "up", "--margin", "1")
	assert.ErrorContains(t, err, "unknown side")
	p.AssertNotCalled(t, "OpenPosition", mock.Anything, mock.Anything)
}

func TestListFilters(t *testing.T) {
	p := &mockProvider{}
	p.On("GetPositions", mock.Anything, exchange.FilterClosed).Return([]exchange.Position{{PID: "c-1"}}, nil)

	out, err := run(t, p, "list", "--filter", "closed")
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "c-1", got[0]["pid"])

	_, err = run(t, p, "list", "--filter", "pending")
	assert.ErrorContains(t, err, "unknown filter")
}

func TestCloseLongsPrintsPL(t *testing.T) {
	p := &mockProvider{}
	p.On("CloseSide", mock.Anything, exchange.OrderSideBuy).Return(decimal.RequireFromString("10.5"), nil)

	out, err := run(t, p, "close-longs")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pl":"10.5"}`, out)
}

func TestCloseShortsPropagatesError(t *testing.T) {
	p := &mockProvider{}
	p.On("CloseSide", mock.Anything, exchange.OrderSideSell).Return(decimal.Zero, errors.New("status 500"))

	_, err := run(t, p, "close-shorts")
	assert.ErrorContains(t, err, "status 500")
}

func TestAmountCommands(t *testing.T) {
	p := &mockProvider{}
	p.On("AddMargin", mock.Anything, "p-1", int64(500)).Return(&exchange.Position{PID: "p-1"}, nil)
	p.On("CashIn", mock.Anything, "p-1", int64(200)).Return(&exchange.Position{PID: "p-1"}, nil)

	_, err := run(t, p, "add-margin", "p-1", "500")
	require.NoError(t, err)
	_, err = run(t, p, "cash-in", "p-1", "200")
	require.NoError(t, err)
	_, err = run(t, p, "cash-in", "p-1", "lots")
	assert.ErrorContains(t, err, "invalid amount")
	p.AssertExpectations(t)
}

func TestUpdateAndCancel(t *testing.T) {
	p := &mockProvider{}
	p.On("UpdatePosition", mock.Anything, "p-1", exchange.UpdateTakeprofit, 70000.0).Return(&exchange.Position{PID: "p-1"}, nil)
	p.On("CancelPosition", mock.Anything, "p-2").Return(&exchange.Position{PID: "p-2", Canceled: true}, nil)
	p.On("ClosePosition", mock.Anything, "p-3").Return(&exchange.Position{PID: "p-3", Closed: true}, nil)

	_, err := run(t, p, "update", "p-1", "TakeProfit", "70000")
	require.NoError(t, err)
	_, err = run(t, p, "cancel", "p-2")
	require.NoError(t, err)
	_, err = run(t, p, "close", "p-3")
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestPLAndCloseAll(t *testing.T) {
	p := &mockProvider{}
	p.On("RealizedProfit", mock.Anything).Return(decimal.NewFromInt(100), nil)
	p.On("UnrealizedProfit", mock.Anything).Return(decimal.RequireFromString("-2.5"), nil)
	p.On("MarginWithheld", mock.Anything).Return(decimal.NewFromInt(350), nil)
	p.On("CloseAll", mock.Anything).Return(&exchange.CloseAllResult{Pl: decimal.NewFromInt(7)}, nil)

	out, err := run(t, p, "pl")
	require.NoError(t, err)
	assert.JSONEq(t, `{"realized":"100","unrealized":"-2.5","margin_withheld":"350"}`, out)

	out, err = run(t, p, "close-all")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pl":"7","positions":null}`, out)
}
