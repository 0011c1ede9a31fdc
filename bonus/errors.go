package bonus

import "errors"

var (
	// ErrAlreadySubmitted indicates a duplicate enrollment for the month.
	ErrAlreadySubmitted = errors.New("bonus: node already submitted for month")

	// ErrNotEnrolled indicates the node has no enrollment for the month.
	ErrNotEnrolled = errors.New("bonus: node not enrolled for month")

	// ErrInvalidTier indicates a zero share tier.
	ErrInvalidTier = errors.New("bonus: tier must be positive")
)
