package emission

import "errors"

var (
	// ErrAlreadyMinted indicates emission already ran for the week.
	ErrAlreadyMinted = errors.New("emission: week already minted")

	// ErrWeekNotMinted indicates a claim against a week without emission.
	ErrWeekNotMinted = errors.New("emission: no emission recorded for week")

	// ErrNothingToClaim indicates the claimant holds no share of the pool.
	ErrNothingToClaim = errors.New("emission: nothing to claim")

	// ErrInsufficientUnclaimed indicates a payout larger than the tokens held.
	ErrInsufficientUnclaimed = errors.New("emission: payout exceeds unclaimed tokens")
)
