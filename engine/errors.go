package engine

import "errors"

var (
	// ErrEmptyBatch indicates a settlement call with no order identifiers.
	ErrEmptyBatch = errors.New("engine: empty order batch")

	// ErrOrderNotMonotonic indicates order identifiers were not strictly increasing.
	ErrOrderNotMonotonic = errors.New("engine: order identifiers must be strictly increasing")

	// ErrOrderReplayed indicates an identifier at or below the node's settlement pointer.
	ErrOrderReplayed = errors.New("engine: order already processed for this node")

	// ErrOpenPeriod indicates an order from the still-open current period.
	ErrOpenPeriod = errors.New("engine: order belongs to the current open period")

	// ErrOrderMismatch indicates the resolved orders do not match the supplied identifiers.
	ErrOrderMismatch = errors.New("engine: order batch does not match identifiers")

	// ErrParamOutOfBounds indicates a tunable parameter outside its fixed bounds.
	ErrParamOutOfBounds = errors.New("engine: parameter out of bounds")

	// ErrModeAlreadyWeekly indicates a second attempt to switch settlement mode.
	ErrModeAlreadyWeekly = errors.New("engine: weekly mode already active")
)
