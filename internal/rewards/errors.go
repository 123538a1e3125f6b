package rewards

import "errors"

// Validation failure kinds. Match with errors.Is.
var (
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Reasons surfaced to API callers.
const (
	ReasonMissingRecipient = "Missing receiver_wallet_address"
	ReasonInvalidRecipient = "Invalid receiver wallet address"
	ReasonInvalidAmount    = "Invalid amount_sol"
	ReasonAmountOutOfRange = "amount_sol out of range"
)

// ValidationError is a client-side fault. No I/O happened before it was
// returned and nothing was recorded.
type ValidationError struct {
	Kind   error
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalidRecipient(reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidRecipient, Reason: reason}
}

func invalidAmount(reason string) *ValidationError {
	return &ValidationError{Kind: ErrInvalidAmount, Reason: reason}
}
