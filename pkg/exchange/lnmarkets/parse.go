package lnmarkets

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"

	"lnmarkets-api/pkg/exchange"
)

// unwrap returns the value under key when body is an object carrying it,
// otherwise body itself. Older API versions wrap single records.
func unwrap(body []byte, key string) []byte {
	value, dataType, _, err := jsonparser.Get(body, key)
	if err == nil && dataType == jsonparser.Object {
		return value
	}
	return body
}

func decodePosition(op string, body []byte) (*exchange.Position, error) {
	var pos exchange.Position
	if err := json.Unmarshal(unwrap(body, "position"), &pos); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode %s response: %w", op, err)
	}
	return &pos, nil
}

// decodePositionSet accepts a bare array, or an object of arrays keyed by
// set name. With a keyword present only that array is used; otherwise all
// arrays are concatenated in key order.
func decodePositionSet(op string, body []byte, keyword string) ([]exchange.Position, error) {
	value, dataType, _, err := jsonparser.Get(body)
	if err != nil {
		return nil, fmt.Errorf("lnmarkets: decode %s response: %w", op, err)
	}
	switch dataType {
	case jsonparser.Array:
		return decodePositions(op, value)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Object:
	default:
		return nil, fmt.Errorf("lnmarkets: decode %s response: unexpected %s", op, dataType)
	}

	if keyword != "" {
		if arr, dt, _, err := jsonparser.Get(value, keyword); err == nil && dt == jsonparser.Array {
			return decodePositions(op, arr)
		}
	}
	sets := make(map[string][]byte)
	err = jsonparser.ObjectEach(value, func(key, v []byte, dt jsonparser.ValueType, _ int) error {
		if dt == jsonparser.Array {
			sets[string(key)] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lnmarkets: decode %s response: %w", op, err)
	}
	keys := make([]string, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []exchange.Position
	for _, k := range keys {
		part, err := decodePositions(op, sets[k])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

func decodePositions(op string, arr []byte) ([]exchange.Position, error) {
	var out []exchange.Position
	if err := json.Unmarshal(arr, &out); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode %s response: %w", op, err)
	}
	return out, nil
}

// decodeCloseAll reads the server-reported aggregate pl and, when present,
// the closed positions.
func decodeCloseAll(op string, body []byte) (*exchange.CloseAllResult, error) {
	result := &exchange.CloseAllResult{Pl: decimal.Zero}
	if raw, dt, _, err := jsonparser.Get(body, "pl"); err == nil && dt != jsonparser.Null {
		pl, err := decimal.NewFromString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("lnmarkets: decode %s pl: %w", op, err)
		}
		result.Pl = pl
	}
	if raw, dt, _, err := jsonparser.Get(body, "positions"); err == nil && dt == jsonparser.Array {
		positions, err := decodePositions(op, raw)
		if err != nil {
			return nil, err
		}
		result.Positions = positions
	}
	return result, nil
}
