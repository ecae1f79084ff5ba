package ledger

import "errors"

// Ledger errors. Every failed operation leaves no partial state behind,
// so callers never need compensation logic on top of these.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrDuplicateOperation     = errors.New("duplicate operation")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrRewardInactive         = errors.New("reward inactive")
	ErrRewardNotFound         = errors.New("reward not found")
	ErrSoldOut                = errors.New("sold out")
	ErrOfferNotAvailable      = errors.New("offer not available")
	ErrOfferNotFound          = errors.New("offer not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyFulfilled       = errors.New("already fulfilled")
	ErrCodeNotFound           = errors.New("code not found")
	ErrInvalidQuantity        = errors.New("invalid quantity")
)

// Lookup errors for the surrounding CRUD surfaces.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrPreorderNotFound = errors.New("preorder not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductInactive  = errors.New("product inactive")
	ErrInvalidSetting   = errors.New("invalid setting value")
)
