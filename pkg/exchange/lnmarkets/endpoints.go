package lnmarkets

import (
	"fmt"
	"strings"

	"lnmarkets-api/pkg/exchange"
)

// Profile selects one of the published API versions.
type Profile string

const (
	// ProfileV1 is the versioned /v1 API with /futures routes.
	ProfileV1 Profile = "v1"
	// ProfileLegacy is the unversioned API with /positions routes.
	ProfileLegacy Profile = "legacy"
)

// Endpoints is the route table for one API profile. An empty route means
// the profile does not offer the operation.
type Endpoints struct {
	Profile    Profile
	MainnetURL string
	TestnetURL string

	// Keyword the server uses for the running position set.
	RunningFilter string

	// Positions
	Positions string
	CloseAll  string
	AddMargin string
	CashIn    string
	Cancel    string

	// Session and tokens
	Login  string
	Logout string
	Token  string

	// User
	User           string
	UpdatePassword string
	UserHistory    string
	Deposit        string
	Withdraw       string
	WithdrawLNURL  string

	// Public state and history
	State    string
	Node     string
	Index    string
	BidOffer string
}

var profiles = map[Profile]Endpoints{
	ProfileV1: {
		Profile:        ProfileV1,
		MainnetURL:     "https://api.lnmarkets.com/v1",
		TestnetURL:     "https://api.testnet.lnmarkets.com/v1",
		RunningFilter:  "running",
		Positions:      "/futures",
		CloseAll:       "/futures/all/close",
		AddMargin:      "/futures/add-margin",
		CashIn:         "/futures/cash-in",
		Cancel:         "/futures/cancel",
		Login:          "/user/login",
		Logout:         "/user/logout",
		Token:          "/user/jwt",
		User:           "/user",
		UpdatePassword: "/user/update-password",
		UserHistory:    "/user/history",
		Deposit:        "/user/deposit",
		Withdraw:       "/user/withdraw",
		WithdrawLNURL:  "/user/withdraw/lnurl",
		State:          "/state",
		Node:           "/state/node",
		Index:          "/history/index",
		BidOffer:       "/history/bid-offer",
	},
	ProfileLegacy: {
		Profile:        ProfileLegacy,
		MainnetURL:     "https://api.lnmarkets.com",
		TestnetURL:     "https://api.testnet.lnmarkets.com",
		RunningFilter:  "open",
		Positions:      "/positions",
		AddMargin:      "/positions/add-margin",
		CashIn:         "/positions/cash-in",
		Cancel:         "/positions/cancel",
		Login:          "/login/credentials",
		Logout:         "/user/logout",
		Token:          "/user/jwt",
		User:           "/user",
		UpdatePassword: "/user/update-password",
		UserHistory:    "/user/history",
		Deposit:        "/user/deposit",
		Withdraw:       "/user/withdraw",
		WithdrawLNURL:  "/user/withdraw/lnurl",
		State:          "/state",
		Node:           "/state/node",
		Index:          "/history/index",
		BidOffer:       "/history/bid-offer",
	},
}

// EndpointsFor returns the route table for profile. An empty profile
// selects ProfileV1.
func EndpointsFor(profile Profile) (Endpoints, error) {
	key := Profile(strings.ToLower(strings.TrimSpace(string(profile))))
	if key == "" {
		key = ProfileV1
	}
	ep, ok := profiles[key]
	if !ok {
		return Endpoints{}, fmt.Errorf("lnmarkets: unknown api profile %q", profile)
	}
	return ep, nil
}

// BaseURL picks the mainnet or testnet root.
func (e Endpoints) BaseURL(testnet bool) string {
	if testnet {
		return e.TestnetURL
	}
	return e.MainnetURL
}

// filterKeyword maps a listing filter onto the profile's query value.
func (e Endpoints) filterKeyword(filter exchange.PositionFilter) string {
	if filter.IsRunning() {
		return e.RunningFilter
	}
	return string(filter)
}
