package protocol

const (
	// Transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest            = "E_BAD_REQUEST"
	ErrInvalidAmount         = "E_INVALID_AMOUNT"
	ErrInvalidSteps          = "E_INVALID_STEPS"
	ErrInsufficientInventory = "E_INSUFFICIENT_INVENTORY"
	ErrInsufficientFunds     = "E_INSUFFICIENT_FUNDS"
	ErrInternal              = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:       {},
	ErrBadRequest:            {},
	ErrInvalidAmount:         {},
	ErrInvalidSteps:          {},
	ErrInsufficientInventory: {},
	ErrInsufficientFunds:     {},
	ErrInternal:              {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
