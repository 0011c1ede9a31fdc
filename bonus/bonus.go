// Package bonus defines the interface to the external monthly bonus-share
// collaborator ("FastValue") and ships an in-memory reference
// implementation used by tests and the standalone daemon.
package bonus

import "sync"

// Pool is the narrow collaborator surface the core consumes: it submits an
// eligibility event when a node first qualifies, and reads back the node's
// share when a monthly payout is requested.
type Pool interface {
	// Submit enrolls a node for the given month at a tier. A second
	// submission for the same node and month must be rejected.
	Submit(nodeID, month uint64, tier uint8) error

	// ShareOf returns the node's payout for the month, in micro-units.
	ShareOf(nodeID, month uint64) (uint64, error)
}

// MemoryPool is an in-process Pool. Each month's fixed pool amount is
// split across enrolled nodes weighted by tier.
type MemoryPool struct {
	mu          sync.Mutex
	monthlyPool uint64
	months      map[uint64]map[uint64]uint8 // month → node → tier
}

// Compile-time interface check.
var _ Pool = (*MemoryPool)(nil)

// NewMemoryPool creates a pool paying out monthlyPool micro-units per month.
func NewMemoryPool(monthlyPool uint64) *MemoryPool {
	return &MemoryPool{
		monthlyPool: monthlyPool,
		months:      make(map[uint64]map[uint64]uint8),
	}
}

// Submit enrolls nodeID for month at tier.
func (p *MemoryPool) Submit(nodeID, month uint64, tier uint8) error {
	if tier == 0 {
		return ErrInvalidTier
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entries, ok := p.months[month]
	if !ok {
		entries = make(map[uint64]uint8)
		p.months[month] = entries
	}
	if _, ok := entries[nodeID]; ok {
		return ErrAlreadySubmitted
	}
	entries[nodeID] = tier
	return nil
}

// ShareOf returns nodeID's tier-weighted share of the month's pool.
func (p *MemoryPool) ShareOf(nodeID, month uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, ok := p.months[month]
	if !ok {
		return 0, ErrNotEnrolled
	}
	tier, ok := entries[nodeID]
	if !ok {
		return 0, ErrNotEnrolled
	}

	var totalWeight uint64
	for _, t := range entries {
		totalWeight += uint64(t)
	}
	return p.monthlyPool * uint64(tier) / totalWeight, nil
}
