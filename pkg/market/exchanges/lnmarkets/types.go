package lnmarkets

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// State is the public API status document.
type State struct {
	NewPositions bool           `json:"newPosition"`
	Fields       map[string]any `json:"-"`
}

// NodeInfo describes the venue's Lightning node.
type NodeInfo struct {
	Alias     string   `json:"alias"`
	PublicKey string   `json:"publicKey"`
	URIs      []string `json:"uris"`
}

// IndexPoint is one sample of the reference index.
type IndexPoint struct {
	Time  time.Time
	Index decimal.Decimal
}

// UnmarshalJSON reads the millisecond timestamp used by the history routes.
func (p *IndexPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Time  int64           `json:"time"`
		Index decimal.Decimal `json:"index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Time = time.UnixMilli(raw.Time).UTC()
	p.Index = raw.Index
	return nil
}

// BidOfferPoint is one quote sample.
type BidOfferPoint struct {
	Time  time.Time
	Bid   decimal.Decimal
	Offer decimal.Decimal
}

// UnmarshalJSON reads the millisecond timestamp used by the history routes.
func (p *BidOfferPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Time  int64           `json:"time"`
		Bid   decimal.Decimal `json:"bid"`
		Offer decimal.Decimal `json:"offer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Time = time.UnixMilli(raw.Time).UTC()
	p.Bid = raw.Bid
	p.Offer = raw.Offer
	return nil
}

// HistoryQuery bounds a history request. Zero values are omitted.
type HistoryQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}
