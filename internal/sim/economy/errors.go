package economy

import (
	"errors"

	"galaxytrade/internal/protocol"
)

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidSteps          = errors.New("invalid step count")
	ErrInsufficientInventory = errors.New("not enough inventory to ship")
	ErrInsufficientFunds     = errors.New("not enough credits to pay shipping costs")
	ErrNilRandom             = errors.New("nil random source")
)

// ErrorCode maps an engine error onto its stable protocol code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return protocol.ErrInvalidAmount
	case errors.Is(err, ErrInvalidSteps):
		return protocol.ErrInvalidSteps
	case errors.Is(err, ErrInsufficientInventory):
		return protocol.ErrInsufficientInventory
	case errors.Is(err, ErrInsufficientFunds):
		return protocol.ErrInsufficientFunds
	default:
		return protocol.ErrInternal
	}
}
