package lnmarkets

import (
	"errors"
	"fmt"
	"net/http"

	"lnmarkets-api/pkg/exchange"
	"lnmarkets-api/pkg/transport"
)

var (
	// Order rejections are the shared exchange sentinels.
	ErrMarginOrQuantityRequired = exchange.ErrMarginOrQuantityRequired
	ErrLimitPriceRequired       = exchange.ErrLimitPriceRequired
	ErrInvalidSide              = exchange.ErrInvalidSide
	ErrInvalidOrderType         = exchange.ErrInvalidOrderType

	ErrInvalidUpdateField = errors.New("field must be stoploss or takeprofit")
	ErrPIDRequired        = errors.New("pid required")
	ErrInvalidAmount      = errors.New("amount must be a positive number of satoshis")
	ErrCredentialRequired = errors.New("credential required")

	// ErrEndpointUnavailable is returned when the selected API profile has
	// no route for an operation.
	ErrEndpointUnavailable = errors.New("lnmarkets: endpoint unavailable for api profile")
)

// ValidationError reports a request rejected before any network call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "lnmarkets: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// AuthError is a 401 or 403 answer. Body holds the server text verbatim.
type AuthError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("lnmarkets: unable to %s: unauthorized (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// TransportError is any other non-200 answer, or a request that got no
// answer at all (StatusCode 0, Err set).
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("lnmarkets: unable to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lnmarkets: unable to %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CheckResponse maps a transport response onto the error taxonomy.
// Only HTTP 200 is success.
func CheckResponse(op string, resp *transport.Response) error {
	if resp == nil {
		return &TransportError{Op: op, Err: errors.New("empty response")}
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	default:
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
}
