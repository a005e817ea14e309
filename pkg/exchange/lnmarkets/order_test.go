package lnmarkets

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lnmarkets-api/pkg/exchange"
)

func TestCreatePositionValidation(t *testing.T) {
	tests := []struct {
		name  string
		order exchange.Order
		field string
		want  error
	}{
		{
			name:  "no margin or quantity",
			order: exchange.Order{Type: exchange.OrderTypeMarket, Side: exchange.OrderSideBuy, Leverage: 2},
			field: "margin",
			want:  exchange.ErrMarginOrQuantityRequired,
		},
		{
			name:  "limit without price",
			order: exchange.Order{Type: exchange.OrderTypeLimit, Side: exchange.OrderSideSell, Leverage: 5, Margin: exchange.Ptr[int64](500)},
			field: "price",
			want:  exchange.ErrLimitPriceRequired,
		},
		{
			name:  "bad side",
			order: exchange.Order{Type: exchange.OrderTypeMarket, Side: "x", Leverage: 1, Margin: exchange.Ptr[int64](1)},
			field: "side",
			want:  exchange.ErrInvalidSide,
		},
		{
			name:  "bad type",
			order: exchange.Order{Type: "z", Side: exchange.OrderSideBuy, Leverage: 1, Margin: exchange.Ptr[int64](1)},
			field: "type",
			want:  exchange.ErrInvalidOrderType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpy()
			client := newTestClient(t, spy)

			pos, err := client.CreatePosition(context.Background(), testToken, tt.order)
			require.Error(t, err)
			assert.Nil(t, pos)
			assert.ErrorIs(t, err, tt.want)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, spy.count(), "validation must not reach the network")
		})
	}
}

func TestCreatePositionRequiresCredential(t *testing.T) {
	spy := newSpy()
	client := newTestClient(t, spy)

	_, err := client.Buy(context.Background(), nil, exchange.Order{Leverage: 2, Margin: exchange.Ptr[int64](1000)})
	assert.ErrorIs(t, err, ErrCredentialRequired)
	assert.Zero(t, spy.count())
}

func TestBuyMarketPayload(t *testing.T) {
	spy := newSpy(ok(`{"pid":"p-1","type":"m","side":"b","margin":1000,"leverage":2,"running":true}`))
	client := newTestClient(t, spy)

	pos, err := client.Buy(context.Background(), testToken, exchange.Order{Leverage: 2, Margin: exchange.Ptr[int64](1000)})
	require.NoError(t, err)
	assert.Equal(t, "p-1", pos.PID)
	assert.True(t, pos.Running)

	req := spy.call(t, 0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/futures", req.Path)
	assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
	assert.JSONEq(t, `{"type":"m","side":"b","leverage":2,"margin":1000}`, string(req.Body))
}

func TestSellWithQuantityAndTriggers(t *testing.T) {
	spy := newSpy(ok(`{"pid":"p-2"}`))
	client := newTestClient(t, spy)

	_, err := client.Sell(context.Background(), testToken, exchange.Order{
		Leverage:   10,
		Quantity:   exchange.Ptr(1.5),
		Stoploss:   exchange.Ptr(31000.0),
		Takeprofit: exchange.Ptr(27000.0),
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"m","side":"s","leverage":10,"quantity":1.5,"stoploss":31000,"takeprofit":27000}`,
		string(spy.call(t, 0).Body))
}

func TestLimitOrderCarriesPrice(t *testing.T) {
	spy := newSpy(ok(`{"pid":"p-3"}`), ok(`{"pid":"p-4"}`))
	client := newTestClient(t, spy)

	_, err := client.LimitBuy(context.Background(), testToken, 25000, exchange.Order{Leverage: 3, Margin: exchange.Ptr[int64](2000)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"l","side":"b","leverage":3,"margin":2000,"price":25000}`, string(spy.call(t, 0).Body))

	_, err = client.LimitSell(context.Background(), testToken, 40000, exchange.Order{Leverage: 3, Margin: exchange.Ptr[int64](2000)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"l","side":"s","leverage":3,"margin":2000,"price":40000}`, string(spy.call(t, 1).Body))
}

func TestMarketOrderDropsPrice(t *testing.T) {
	spy := newSpy(ok(`{}`))
	client := newTestClient(t, spy)

	_, err := client.Buy(context.Background(), testToken, exchange.Order{Leverage: 1, Margin: exchange.Ptr[int64](10), Price: exchange.Ptr(1.0)})
	require.NoError(t, err)
	assert.NotContains(t, string(spy.call(t, 0).Body), "price")
}

func TestMarginTakesPrecedenceOverQuantity(t *testing.T) {
	spy := newSpy(ok(`{}`))
	client := newTestClient(t, spy)

	_, err := client.CreatePosition(context.Background(), testToken, exchange.Order{
		Type:     exchange.OrderTypeMarket,
		Side:     exchange.OrderSideBuy,
		Leverage: 2,
		Margin:   exchange.Ptr[int64](1000),
		Quantity: exchange.Ptr(3.0),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"m","side":"b","leverage":2,"margin":1000}`, string(spy.call(t, 0).Body))
}

func TestCreatePositionUnwrapsEnvelope(t *testing.T) {
	spy := newSpy(ok(`{"position":{"id":"legacy-1","margin":"1000"}}`))
	client := newTestClient(t, spy)

	pos, err := client.Buy(context.Background(), testToken, exchange.Order{Leverage: 1, Margin: exchange.Ptr[int64](1000)})
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", pos.PID)
	assert.Equal(t, "1000", pos.Margin.String())
}
