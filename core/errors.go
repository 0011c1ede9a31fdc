package core

import "errors"

var (
	// ErrNoLines indicates an order batch without seller lines.
	ErrNoLines = errors.New("core: order must carry at least one line")

	// ErrInvalidLine indicates a malformed seller line.
	ErrInvalidLine = errors.New("core: invalid order line")

	// ErrValueMismatch indicates the collected total does not match the lines.
	ErrValueMismatch = errors.New("core: total value does not match order lines")

	// ErrInsufficientValue indicates a first-time buyer below the admission minimum.
	ErrInsufficientValue = errors.New("core: business value below minimum for new node")

	// ErrParentNotFound indicates an unknown parent address for a new node.
	ErrParentNotFound = errors.New("core: parent address not registered")

	// ErrPositionLocked indicates a position not yet opened by the parent's value tier.
	ErrPositionLocked = errors.New("core: position locked by parent value tier")

	// ErrInsufficientBalance indicates a withdrawal above the available balance.
	ErrInsufficientBalance = errors.New("core: amount exceeds withdrawable balance")

	// ErrAlreadyClaimed indicates a second claim for the same period or month.
	ErrAlreadyClaimed = errors.New("core: period already claimed")

	// ErrAccrualNotDue indicates an accrued claim before the accrual interval elapsed.
	ErrAccrualNotDue = errors.New("core: accrual interval has not elapsed")

	// ErrWeekOpen indicates an emission run for a week that has not fully elapsed.
	ErrWeekOpen = errors.New("core: settlement week has not elapsed")

	// ErrMonthOpen indicates a bonus claim for a month that has not fully elapsed.
	ErrMonthOpen = errors.New("core: bonus month has not elapsed")

	// ErrUnauthorized indicates a caller without the required role.
	ErrUnauthorized = errors.New("core: caller not authorized")

	// ErrDailyModeActive indicates a parameter change while daily settlement is active.
	ErrDailyModeActive = errors.New("core: parameters adjustable only in weekly mode")

	// ErrMigrationClosed indicates a migration attempt outside the import window.
	ErrMigrationClosed = errors.New("core: migration window closed")

	// ErrChecksumMismatch indicates a migration batch failing integrity verification.
	ErrChecksumMismatch = errors.New("core: migration batch checksum mismatch")

	// ErrTransferFailed wraps a value-transfer collaborator failure.
	ErrTransferFailed = errors.New("core: value transfer failed")

	// ErrTokenBackend wraps a token collaborator failure.
	ErrTokenBackend = errors.New("core: token backend failed")

	// ErrPriceUnavailable wraps a reserve-price collaborator failure.
	ErrPriceUnavailable = errors.New("core: reserve price unavailable")

	// ErrMissingDependency indicates a nil collaborator at construction.
	ErrMissingDependency = errors.New("core: missing collaborator dependency")
)
