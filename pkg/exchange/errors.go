package exchange

import "errors"

// Order rejections shared by every venue. Venues wrap them so callers can
// match with errors.Is regardless of the provider behind the interface.
var (
	ErrInvalidSide              = errors.New("side must be b or s")
	ErrInvalidOrderType         = errors.New("type must be m or l")
	ErrMarginOrQuantityRequired = errors.New("margin or quantity required")
	ErrLimitPriceRequired       = errors.New("price required for limit order")
)
