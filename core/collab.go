package core

import (
	"errors"
	"sync"
)

// Roles recognized by the access-control collaborator.
const (
	RoleAdmin    = "admin"
	RoleMigrator = "migrator"
)

// ValueTransfer is the custody collaborator moving the purchase asset.
// Amounts are micro-units. The core only records the numeric results; a
// reported failure aborts the calling operation.
type ValueTransfer interface {
	TransferIn(from string, amount uint64) error
	TransferOut(to string, amount uint64) error
	BalanceOf(holder string) (uint64, error)
}

// TokenBackend is the emitted-token collaborator: minting and transfer of
// the emission token plus its circulating supply.
type TokenBackend interface {
	Mint(amount uint64) error
	Transfer(to string, amount uint64) error
	TotalSupply() (uint64, error)
}

// PriceSource supplies the reserve-price signal from the vault
// collaborator, in micro-units.
type PriceSource interface {
	Price() (uint64, error)
}

// AccessControl gates administrative operations.
type AccessControl interface {
	IsAuthorized(caller, role string) bool
}

// ---------------------------------------------------------------------------
// In-process reference collaborators, used by tests and the standalone
// daemon's dev mode.
// ---------------------------------------------------------------------------

var errInsufficientFunds = errors.New("core: insufficient funds")

// MemoryValueTransfer is an in-memory ValueTransfer holding one pooled
// balance.
type MemoryValueTransfer struct {
	mu       sync.Mutex
	pool     uint64
	balances map[string]uint64
}

var _ ValueTransfer = (*MemoryValueTransfer)(nil)

// NewMemoryValueTransfer creates an empty in-memory asset pool.
func NewMemoryValueTransfer() *MemoryValueTransfer {
	return &MemoryValueTransfer{balances: make(map[string]uint64)}
}

// TransferIn moves amount from the holder into the pool.
func (m *MemoryValueTransfer) TransferIn(from string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool += amount
	return nil
}

// TransferOut pays amount from the pool to the holder.
func (m *MemoryValueTransfer) TransferOut(to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount > m.pool {
		return errInsufficientFunds
	}
	m.pool -= amount
	m.balances[to] += amount
	return nil
}

// BalanceOf returns the amount paid out to the holder so far.
func (m *MemoryValueTransfer) BalanceOf(holder string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[holder], nil
}

// MemoryTokenBackend is an in-memory TokenBackend.
type MemoryTokenBackend struct {
	mu       sync.Mutex
	supply   uint64
	held     uint64
	balances map[string]uint64
}

var _ TokenBackend = (*MemoryTokenBackend)(nil)

// NewMemoryTokenBackend creates a token backend with an initial supply
// circulating outside the ledger.
func NewMemoryTokenBackend(initialSupply uint64) *MemoryTokenBackend {
	return &MemoryTokenBackend{supply: initialSupply, balances: make(map[string]uint64)}
}

// Mint creates amount new tokens held by the ledger.
func (m *MemoryTokenBackend) Mint(amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supply += amount
	m.held += amount
	return nil
}

// Transfer pays amount from the ledger's held tokens to the holder.
func (m *MemoryTokenBackend) Transfer(to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount > m.held {
		return errInsufficientFunds
	}
	m.held -= amount
	m.balances[to] += amount
	return nil
}

// TotalSupply returns the circulating supply.
func (m *MemoryTokenBackend) TotalSupply() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supply, nil
}

// BalanceOf returns the holder's token balance.
func (m *MemoryTokenBackend) BalanceOf(holder string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[holder]
}

// StaticPrice is a PriceSource returning a fixed reserve signal.
type StaticPrice uint64

var _ PriceSource = StaticPrice(0)

// Price returns the fixed signal.
func (p StaticPrice) Price() (uint64, error) { return uint64(p), nil }

// StaticAccess is an AccessControl backed by a caller→roles table.
type StaticAccess map[string][]string

var _ AccessControl = StaticAccess(nil)

// IsAuthorized reports whether caller holds role.
func (a StaticAccess) IsAuthorized(caller, role string) bool {
	for _, r := range a[caller] {
		if r == role {
			return true
		}
	}
	return false
}
