package lnmarkets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

const defaultUnit = "sat"

// User is the account profile.
type User struct {
	UID              string          `json:"uid"`
	Username         string          `json:"username"`
	Balance          decimal.Decimal `json:"balance"`
	AccountType      string          `json:"account_type"`
	ShowLeaderboard  bool            `json:"show_leaderboard"`
	ShowUsername     bool            `json:"show_username"`
	LinkingPublicKey string          `json:"linkingpublickey,omitempty"`
}

// UserUpdate lists profile fields to change; nil fields are left alone.
type UserUpdate struct {
	ShowLeaderboard *bool
	ShowUsername    *bool
	Username        *string
}

// TransactionKind selects deposits or withdrawals.
type TransactionKind string

const (
	TransactionDeposit  TransactionKind = "deposit"
	TransactionWithdraw TransactionKind = "withdraw"
)

// TransactionQuery pages through the deposit or withdrawal history.
// Zero values leave the corresponding parameter out.
type TransactionQuery struct {
	Kind      TransactionKind
	Limit     int // nbitem
	Page      int // index, used with Limit; defaults to 1
	GetLength bool
	Start     time.Time
	End       time.Time
}

// Transaction is one deposit or withdrawal.
type Transaction struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status,omitempty"`
	TS     int64           `json:"ts,omitempty"`
}

// TransactionPage is a page of history, with the total when requested.
type TransactionPage struct {
	Items  []Transaction
	Length int64
}

// DepositInvoice is a Lightning invoice crediting the account once paid.
type DepositInvoice struct {
	PaymentRequest string `json:"paymentRequest"`
	Expiry         int64  `json:"expiry"`
}

// Withdrawal is the receipt of a settled invoice withdrawal.
type Withdrawal struct {
	WID           string          `json:"wid"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentSecret string          `json:"paymentSecret"`
	PaymentHash   string          `json:"paymentHash"`
}

// LNURLWithdrawal carries a bech32 LNURL for a wallet to pull funds.
type LNURLWithdrawal struct {
	LNURL string `json:"lnurl"`
}

// UserInfo fetches the account profile.
func (c *Client) UserInfo(ctx context.Context, cred Credential) (*User, error) {
	var user User
	if err := c.do(ctx, c.userCall("get user information", http.MethodGet, nil, cred), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Balance returns the account balance in satoshis.
func (c *Client) Balance(ctx context.Context, cred Credential) (decimal.Decimal, error) {
	user, err := c.UserInfo(ctx, cred)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

// UpdateUser changes the profile fields set in u.
func (c *Client) UpdateUser(ctx context.Context, cred Credential, u UserUpdate) (*User, error) {
	payload := map[string]any{}
	if u.ShowUsername != nil {
		payload["show_username"] = *u.ShowUsername
	}
	if u.ShowLeaderboard != nil {
		payload["show_leaderboard"] = *u.ShowLeaderboard
	}
	if u.Username != nil {
		payload["username"] = *u.Username
	}
	var user User
	if err := c.do(ctx, c.userCall("update user information", http.MethodPut, payload, cred), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces the account password.
func (c *Client) UpdatePassword(ctx context.Context, cred Credential, previous, next string) error {
	if previous == "" || next == "" {
		return invalid("password", errors.New("previous and new password required"))
	}
	_, err := c.send(ctx, call{
		op:      "update password",
		method:  http.MethodPut,
		path:    c.endpoints.UpdatePassword,
		cred:    cred,
		auth:    true,
		payload: map[string]any{"previousPassword": previous, "newPassword": next},
	})
	return err
}

// Transactions lists deposits or withdrawals.
func (c *Client) Transactions(ctx context.Context, cred Credential, q TransactionQuery) (*TransactionPage, error) {
	if q.Kind != TransactionDeposit && q.Kind != TransactionWithdraw {
		return nil, invalid("type", errors.New("type must be deposit or withdraw"))
	}
	query := url.Values{
		"type":      {string(q.Kind)},
		"getLength": {strconv.FormatBool(q.GetLength)},
	}
	if q.Limit > 0 {
		page := q.Page
		if page <= 0 {
			page = 1
		}
		query.Set("nbitem", strconv.Itoa(q.Limit))
		query.Set("index", strconv.Itoa(page))
	}
	if !q.Start.IsZero() {
		query.Set("start", strconv.FormatInt(q.Start.UnixMilli(), 10))
	}
	if !q.End.IsZero() {
		query.Set("end", strconv.FormatInt(q.End.UnixMilli(), 10))
	}
	resp, err := c.send(ctx, call{
		op:     "get user transactions",
		method: http.MethodGet,
		path:   c.endpoints.UserHistory,
		cred:   cred,
		auth:   true,
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	return decodeTransactions(resp.Body)
}

// decodeTransactions accepts a bare array or an object carrying the items
// under "transactions" plus an optional "length".
func decodeTransactions(body []byte) (*TransactionPage, error) {
	page := &TransactionPage{}
	items := body
	if _, dt, _, err := jsonparser.Get(body); err == nil && dt == jsonparser.Object {
		if n, err := jsonparser.GetInt(body, "length"); err == nil {
			page.Length = n
		}
		arr, dt, _, err := jsonparser.Get(body, "transactions")
		if err != nil || dt != jsonparser.Array {
			return page, nil
		}
		items = arr
	}
	if err := json.Unmarshal(items, &page.Items); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode transactions: %w", err)
	}
	if page.Length == 0 {
		page.Length = int64(len(page.Items))
	}
	return page, nil
}

// Deposit requests an invoice for amount satoshis.
func (c *Client) Deposit(ctx context.Context, cred Credential, amount int64) (*DepositInvoice, error) {
	if amount <= 0 {
		return nil, invalid("amount", ErrInvalidAmount)
	}
	var out DepositInvoice
	err := c.do(ctx, call{
		op:      "get invoice",
		method:  http.MethodPost,
		path:    c.endpoints.Deposit,
		cred:    cred,
		auth:    true,
		payload: map[string]any{"amount": amount, "unit": defaultUnit},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WithdrawInvoice pays a BOLT 11 invoice of amount satoshis from the balance.
func (c *Client) WithdrawInvoice(ctx context.Context, cred Credential, amount int64, invoice string) (*Withdrawal, error) {
	if amount <= 0 {
		return nil, invalid("amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(invoice) == "" {
		return nil, invalid("invoice", errors.New("invoice required"))
	}
	var out Withdrawal
	err := c.do(ctx, call{
		op:      "make payment",
		method:  http.MethodPost,
		path:    c.endpoints.Withdraw,
		cred:    cred,
		auth:    true,
		payload: map[string]any{"amount": amount, "unit": defaultUnit, "invoice": invoice},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WithdrawLNURL creates an LNURL withdrawal of amount satoshis.
func (c *Client) WithdrawLNURL(ctx context.Context, cred Credential, amount int64) (*LNURLWithdrawal, error) {
	if amount <= 0 {
		return nil, invalid("amount", ErrInvalidAmount)
	}
	var out LNURLWithdrawal
	err := c.do(ctx, call{
		op:      "create lnurl",
		method:  http.MethodPost,
		path:    c.endpoints.WithdrawLNURL,
		cred:    cred,
		auth:    true,
		payload: map[string]any{"amount": amount, "unit": defaultUnit},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) userCall(op, method string, payload map[string]any, cred Credential) call {
	return call{
		op:      op,
		method:  method,
		path:    c.endpoints.User,
		cred:    cred,
		auth:    true,
		payload: payload,
	}
}
