package ledger

import "errors"

var (
	// ErrNodeNotFound indicates no node exists for the identifier or address.
	ErrNodeNotFound = errors.New("ledger: node not found")

	// ErrSellerNotFound indicates no seller exists for the identifier or address.
	ErrSellerNotFound = errors.New("ledger: seller not found")

	// ErrOrderNotFound indicates no order exists for the identifier.
	ErrOrderNotFound = errors.New("ledger: order not found")

	// ErrDuplicateAddress indicates the address is already registered.
	ErrDuplicateAddress = errors.New("ledger: address already registered")

	// ErrEmptyAddress indicates an empty participant address.
	ErrEmptyAddress = errors.New("ledger: address must not be empty")

	// ErrZeroValue indicates an order with no business value.
	ErrZeroValue = errors.New("ledger: order business value must be positive")
)
