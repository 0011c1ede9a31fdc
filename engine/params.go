package engine

import (
	"fmt"

	"github.com/fash-ns/arandao-go/ledger"
)

// Tunable parameter defaults. All value amounts are in micro-units
// (ledger.ValueScale per whole unit).
const (
	DefaultPairThreshold     = 50 * ledger.ValueScale
	DefaultCommissionPerStep = 20 * ledger.ValueScale
	DefaultMaxStepsPerPeriod = 30
	DefaultMinNodeValue      = 50 * ledger.ValueScale
)

// Fixed bounds for parameter adjustment once weekly mode is active.
const (
	MinPairThreshold = 10 * ledger.ValueScale
	MaxPairThreshold = 500 * ledger.ValueScale

	MinCommissionPerStep = 5 * ledger.ValueScale
	MaxCommissionPerStep = 100 * ledger.ValueScale

	MinMaxSteps = 10
	MaxMaxSteps = 120

	MinMinNodeValue = 10 * ledger.ValueScale
	MaxMinNodeValue = 500 * ledger.ValueScale
)

// Position-tier thresholds on the parent's accumulated value. Below Tier1
// only the outer positions (0, 3) are assignable; from Tier1 position 1
// opens; from Tier2 all four positions open.
const (
	Tier1BV = 1_000 * ledger.ValueScale
	Tier2BV = 5_000 * ledger.ValueScale
)

// FlushOutSwitchThreshold is the number of flush-outs in a single day that
// triggers the one-way switch to weekly settlement.
const FlushOutSwitchThreshold = 500

// BonusStepThreshold is the cumulative step count at which a node becomes
// eligible for bonus-pool enrollment.
const BonusStepThreshold = 5

// Params holds the tunable settlement parameters. They may only be changed
// while weekly mode is active, within the fixed bounds above.
type Params struct {
	PairThreshold     uint64 `json:"pair_threshold" mapstructure:"pair_threshold"`
	CommissionPerStep uint64 `json:"commission_per_step" mapstructure:"commission_per_step"`
	MaxStepsPerPeriod uint32 `json:"max_steps_per_period" mapstructure:"max_steps_per_period"`
	MinNodeValue      uint64 `json:"min_node_value" mapstructure:"min_node_value"`
}

// DefaultParams returns the deployment defaults.
func DefaultParams() Params {
	return Params{
		PairThreshold:     DefaultPairThreshold,
		CommissionPerStep: DefaultCommissionPerStep,
		MaxStepsPerPeriod: DefaultMaxStepsPerPeriod,
		MinNodeValue:      DefaultMinNodeValue,
	}
}

// Validate checks every parameter against its fixed bounds.
func (p Params) Validate() error {
	if p.PairThreshold < MinPairThreshold || p.PairThreshold > MaxPairThreshold {
		return fmt.Errorf("%w: pair threshold %d", ErrParamOutOfBounds, p.PairThreshold)
	}
	if p.CommissionPerStep < MinCommissionPerStep || p.CommissionPerStep > MaxCommissionPerStep {
		return fmt.Errorf("%w: commission per step %d", ErrParamOutOfBounds, p.CommissionPerStep)
	}
	if p.MaxStepsPerPeriod < MinMaxSteps || p.MaxStepsPerPeriod > MaxMaxSteps {
		return fmt.Errorf("%w: max steps %d", ErrParamOutOfBounds, p.MaxStepsPerPeriod)
	}
	if p.MinNodeValue < MinMinNodeValue || p.MinNodeValue > MaxMinNodeValue {
		return fmt.Errorf("%w: min node value %d", ErrParamOutOfBounds, p.MinNodeValue)
	}
	return nil
}
