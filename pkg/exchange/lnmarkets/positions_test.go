package lnmarkets

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lnmarkets-api/pkg/exchange"
)

const runningFixture = `[
	{"pid":"long-1","side":"b","type":"m","margin":1000,"pl":0,"running":true},
	{"pid":"short-1","side":"s","type":"m","margin":500,"pl":0,"running":true},
	{"pid":"long-2","side":"b","type":"m","margin":250,"pl":0,"running":true}
]`

func TestListPositionsFilters(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		filter  exchange.PositionFilter
		keyword string
	}{
		{name: "unfiltered", filter: exchange.FilterNone},
		{name: "open maps to running", filter: exchange.FilterOpen, keyword: "running"},
		{name: "closed", filter: exchange.FilterClosed, keyword: "closed"},
		{name: "legacy running maps to open", profile: ProfileLegacy, filter: exchange.FilterRunning, keyword: "open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpy(ok(`[]`))
			client := newTestClient(t, spy, WithProfile(tt.profile))

			set, err := client.ListPositions(context.Background(), testToken, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.filter, set.Filter)

			req := spy.call(t, 0)
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, client.Endpoints().Positions, req.Path)
			assert.Equal(t, tt.keyword, req.Query.Get("type"))
			assert.Nil(t, req.Body)
		})
	}
}

func TestListPositionsDecodesKeyedSets(t *testing.T) {
	body := `{"open":[{"id":"o-1","side":"b"}],"closed":[{"id":"c-1","side":"s","closed":true}]}`

	t.Run("keyword present", func(t *testing.T) {
		client := newTestClient(t, newSpy(ok(body)), WithProfile(ProfileLegacy))
		set, err := client.ListPositions(context.Background(), testToken, exchange.FilterOpen)
		require.NoError(t, err)
		require.Len(t, set.Positions, 1)
		assert.Equal(t, "o-1", set.Positions[0].PID)
	})

	t.Run("keyword absent concatenates in key order", func(t *testing.T) {
		client := newTestClient(t, newSpy(ok(body)), WithProfile(ProfileLegacy))
		set, err := client.ListPositions(context.Background(), testToken, exchange.FilterAll)
		require.NoError(t, err)
		require.Len(t, set.Positions, 2)
		assert.Equal(t, "c-1", set.Positions[0].PID)
		assert.Equal(t, "o-1", set.Positions[1].PID)
	})
}

func TestCloseAllLongs(t *testing.T) {
	spy := newSpy(
		ok(runningFixture),
		ok(`{"pid":"long-1","pl":12.5,"closed":true}`),
		ok(`{"pid":"long-2","pl":"-2","closed":true}`),
	)
	client := newTestClient(t, spy)

	total, err := client.CloseAllLongs(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(total), "got %s", total)

	require.Equal(t, 3, spy.count(), "one listing plus two closes")
	assert.Equal(t, "running", spy.call(t, 0).Query.Get("type"))
	for i, pid := range []string{"long-1", "long-2"} {
		req := spy.call(t, i+1)
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/futures", req.Path)
		assert.Equal(t, pid, req.Query.Get("pid"))
	}
}

func TestCloseAllShortsSkipsInactive(t *testing.T) {
	spy := newSpy(
		ok(`[
			{"pid":"s-1","side":"s","closed":true},
			{"pid":"s-2","side":"s","canceled":true},
			{"pid":"s-3","side":"s","running":true},
			{"pid":"b-1","side":"b","running":true}
		]`),
		ok(`{"pid":"s-3","pl":-40}`),
	)
	client := newTestClient(t, spy)

	total, err := client.CloseAllShorts(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-40).Equal(total))
	require.Equal(t, 2, spy.count())
	assert.Equal(t, "s-3", spy.call(t, 1).Query.Get("pid"))
}

func TestCloseAllLongsAbortsOnFirstFailure(t *testing.T) {
	spy := newSpy(
		ok(runningFixture),
		ok(`{"pid":"long-1","pl":12.5}`),
		reply{status: http.StatusInternalServerError, body: "position not found"},
	)
	client := newTestClient(t, spy)

	total, err := client.CloseAllLongs(context.Background(), testToken)
	require.Error(t, err)
	assert.True(t, total.IsZero(), "partial pl must not be returned")

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Equal(t, "position not found", terr.Body)
	assert.Contains(t, err.Error(), "position not found")
	assert.Equal(t, 3, spy.count())
}

func TestIsOpen(t *testing.T) {
	spy := newSpy(ok(runningFixture), ok(runningFixture))
	client := newTestClient(t, spy)

	open, err := client.IsOpen(context.Background(), testToken, "short-1")
	require.NoError(t, err)
	assert.True(t, open)

	open, err = client.IsOpen(context.Background(), testToken, "missing")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestIsOpenPropagatesListingFailure(t *testing.T) {
	client := newTestClient(t, newSpy(reply{status: http.StatusBadGateway, body: "upstream"}))

	open, err := client.IsOpen(context.Background(), testToken, "any")
	assert.False(t, open)
	var terr *TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestAuthErrorMapping(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, newSpy(reply{status: status, body: `{"message":"Bad token"}`}))

		_, err := client.ListPositions(context.Background(), testToken, exchange.FilterNone)
		var aerr *AuthError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, status, aerr.StatusCode)
		assert.Equal(t, `{"message":"Bad token"}`, aerr.Body)
		assert.Contains(t, err.Error(), "Bad token")
	}
}

func TestNonOKSuccessStatusIsError(t *testing.T) {
	client := newTestClient(t, newSpy(reply{status: http.StatusCreated, body: `{"pid":"x"}`}))

	_, err := client.ClosePosition(context.Background(), testToken, "x")
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusCreated, terr.StatusCode)
}

func TestTransportFailureIsWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	client := newTestClient(t, newSpy(reply{err: boom}))

	_, err := client.ClosePosition(context.Background(), testToken, "x")
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.StatusCode)
	assert.ErrorIs(t, err, boom)
}

func TestUpdatePosition(t *testing.T) {
	spy := newSpy(ok(`{"pid":"p-1","stoploss":20000}`))
	client := newTestClient(t, spy)

	pos, err := client.UpdatePosition(context.Background(), testToken, "p-1", exchange.UpdateStoploss, 20000)
	require.NoError(t, err)
	assert.Equal(t, "20000", pos.Stoploss.String())

	req := spy.call(t, 0)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.JSONEq(t, `{"pid":"p-1","type":"stoploss","value":20000}`, string(req.Body))

	_, err = client.UpdatePosition(context.Background(), testToken, "p-1", "leverage", 3)
	assert.ErrorIs(t, err, ErrInvalidUpdateField)
	_, err = client.UpdatePosition(context.Background(), testToken, " ", exchange.UpdateTakeprofit, 3)
	assert.ErrorIs(t, err, ErrPIDRequired)
	assert.Equal(t, 1, spy.count())
}

func TestMarginOperations(t *testing.T) {
	spy := newSpy(ok(`{"pid":"p-1","margin":1500}`), ok(`{"pid":"p-1","margin":1200}`))
	client := newTestClient(t, spy)

	pos, err := client.AddMargin(context.Background(), testToken, "p-1", 500)
	require.NoError(t, err)
	assert.Equal(t, "1500", pos.Margin.String())
	assert.Equal(t, "/futures/add-margin", spy.call(t, 0).Path)
	assert.JSONEq(t, `{"amount":500,"pid":"p-1"}`, string(spy.call(t, 0).Body))

	_, err = client.CashIn(context.Background(), testToken, "p-1", 300)
	require.NoError(t, err)
	assert.Equal(t, "/futures/cash-in", spy.call(t, 1).Path)
	assert.JSONEq(t, `{"amount":300,"pid":"p-1"}`, string(spy.call(t, 1).Body))

	_, err = client.AddMargin(context.Background(), testToken, "p-1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = client.CashIn(context.Background(), testToken, "p-1", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, 2, spy.count())
}

func TestCancelPosition(t *testing.T) {
	spy := newSpy(ok(`{"pid":"p-9","canceled":true}`))
	client := newTestClient(t, spy)

	pos, err := client.CancelPosition(context.Background(), testToken, "p-9")
	require.NoError(t, err)
	assert.True(t, pos.Canceled)
	assert.False(t, pos.IsActive())

	req := spy.call(t, 0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/futures/cancel", req.Path)
	assert.JSONEq(t, `{"pid":"p-9"}`, string(req.Body))
}

func TestCloseAll(t *testing.T) {
	spy := newSpy(ok(`{"pl":"42.5","positions":[{"pid":"a","pl":40},{"pid":"b","pl":2.5}]}`))
	client := newTestClient(t, spy)

	result, err := client.CloseAll(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("42.5").Equal(result.Pl))
	assert.Len(t, result.Positions, 2)

	req := spy.call(t, 0)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/futures/all/close", req.Path)
}

func TestCloseAllUnavailableOnLegacy(t *testing.T) {
	spy := newSpy()
	client := newTestClient(t, spy, WithProfile(ProfileLegacy))

	_, err := client.CloseAll(context.Background(), testToken)
	assert.ErrorIs(t, err, ErrEndpointUnavailable)
	assert.Zero(t, spy.count())
}

func TestProfitFigures(t *testing.T) {
	spy := newSpy(
		ok(`[{"pid":"a","pl":"10.5"},{"pid":"b","pl":"-3.0"}]`),
		ok(runningFixture),
		ok(runningFixture),
	)
	client := newTestClient(t, spy)

	realized, err := client.RealizedProfit(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("7.5").Equal(realized))
	assert.Equal(t, "closed", spy.call(t, 0).Query.Get("type"))

	unrealized, err := client.UnrealizedProfit(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, unrealized.IsZero())
	assert.Equal(t, "running", spy.call(t, 1).Query.Get("type"))

	margin, err := client.MarginWithheld(context.Background(), testToken)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1750).Equal(margin))
}
