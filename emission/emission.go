package emission

// bpsDenom is the basis-point denominator for all pool fractions.
const bpsDenom = 10_000

// Config holds the emission formula constants. Pool fractions are in basis
// points; the three pool fractions sum to bpsDenom.
type Config struct {
	// WeightBps is the portion of the week's business value entering the
	// price numerator.
	WeightBps uint64 `json:"weight_bps" mapstructure:"weight_bps"`

	// MintBps is the portion of the week's business value converted into
	// tokens at the derived price.
	MintBps uint64 `json:"mint_bps" mapstructure:"mint_bps"`

	// BootstrapPrice is the fixed token price (micro-units per token) used
	// while the adjusted circulating supply is zero.
	BootstrapPrice uint64 `json:"bootstrap_price" mapstructure:"bootstrap_price"`

	// MaxWeeklyMint is the absolute per-week mint ceiling in token units.
	MaxWeeklyMint uint64 `json:"max_weekly_mint" mapstructure:"max_weekly_mint"`

	BuyerPoolBps     uint64 `json:"buyer_pool_bps" mapstructure:"buyer_pool_bps"`
	SellerPoolBps    uint64 `json:"seller_pool_bps" mapstructure:"seller_pool_bps"`
	NetworkerPoolBps uint64 `json:"networker_pool_bps" mapstructure:"networker_pool_bps"`

	// NetworkerImmediateBps is the immediately-paid fraction of a
	// networker share; the remainder accrues.
	NetworkerImmediateBps uint64 `json:"networker_immediate_bps" mapstructure:"networker_immediate_bps"`

	// AccrualWeeks is the minimum number of weeks between accrued-share
	// claims.
	AccrualWeeks uint64 `json:"accrual_weeks" mapstructure:"accrual_weeks"`
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{
		WeightBps:             1_000,
		MintBps:               500,
		BootstrapPrice:        1_000_000,
		MaxWeeklyMint:         1_000_000,
		BuyerPoolBps:          4_000,
		SellerPoolBps:         2_000,
		NetworkerPoolBps:      4_000,
		NetworkerImmediateBps: 6_000,
		AccrualWeeks:          12,
	}
}

// State is the emission singleton: last mint bookkeeping plus the running
// unclaimed totals the pricing formula adjusts against.
type State struct {
	LastMintWeek   uint64 `json:"last_mint_week"`
	LastMintAmount uint64 `json:"last_mint_amount"`

	// UnclaimedCommission is the total withdrawable commission across all
	// nodes, in micro-units.
	UnclaimedCommission uint64 `json:"unclaimed_commission"`

	// UnclaimedTokens is the number of minted tokens still held for
	// claimants, including accrued networker entitlements.
	UnclaimedTokens uint64 `json:"unclaimed_tokens"`

	// AccruedTokens is the outstanding accrued networker portion inside
	// UnclaimedTokens. It survives weekly absorption.
	AccruedTokens uint64 `json:"accrued_tokens"`

	// WeekMint records the distributable mint amount per settlement week.
	WeekMint map[uint64]uint64 `json:"week_mint"`
}

// NewState creates an empty emission state.
func NewState() *State {
	return &State{WeekMint: make(map[uint64]uint64)}
}

// MintFor returns the distributable amount for a week, if emission ran.
func (s *State) MintFor(week uint64) (uint64, bool) {
	m, ok := s.WeekMint[week]
	return m, ok
}

// WeekPlan is the outcome of the weekly emission computation. The caller
// mints Shortfall through the token collaborator, then commits the plan.
type WeekPlan struct {
	Week       uint64 `json:"week"`
	Price      uint64 `json:"price"`       // micro-units per token
	MintTarget uint64 `json:"mint_target"` // token units distributable for the week
	Shortfall  uint64 `json:"shortfall"`   // tokens to actually mint
}

// ComputeWeek derives the week's token price and mint amount. The price is
// the weighted weekly value plus the reserve signal, divided by the
// circulating supply net of tokens the ledger already holds unclaimed; at
// zero adjusted supply the bootstrap price applies. The mint target is the
// mint fraction of the weekly value at that price, capped per week, and
// only the shortfall over tokens already held gets minted. A week can be
// computed at most once.
func ComputeWeek(s *State, cfg Config, week, weeklyBV, reservePrice, totalSupply uint64) (*WeekPlan, error) {
	if _, ok := s.WeekMint[week]; ok {
		return nil, ErrAlreadyMinted
	}

	weighted := weeklyBV * cfg.WeightBps / bpsDenom

	adjusted := uint64(0)
	if totalSupply > s.UnclaimedTokens {
		adjusted = totalSupply - s.UnclaimedTokens
	}

	price := cfg.BootstrapPrice
	if adjusted > 0 {
		price = (weighted + reservePrice) / adjusted
		if price == 0 {
			price = 1
		}
	}

	mintTarget := weeklyBV * cfg.MintBps / bpsDenom / price
	if mintTarget > cfg.MaxWeeklyMint {
		mintTarget = cfg.MaxWeeklyMint
	}

	// Only leftover pool tokens are absorbed into the new week; accrued
	// networker entitlements stay reserved.
	absorbable := uint64(0)
	if s.UnclaimedTokens > s.AccruedTokens {
		absorbable = s.UnclaimedTokens - s.AccruedTokens
	}
	shortfall := uint64(0)
	if mintTarget > absorbable {
		shortfall = mintTarget - absorbable
	}

	return &WeekPlan{
		Week:       week,
		Price:      price,
		MintTarget: mintTarget,
		Shortfall:  shortfall,
	}, nil
}

// Commit records a computed week after its shortfall has been minted. The
// held-token total becomes the week's distributable amount: earlier
// unclaimed tokens are absorbed into the new week's pools.
func (s *State) Commit(plan *WeekPlan) {
	s.WeekMint[plan.Week] = plan.MintTarget
	s.LastMintWeek = plan.Week
	s.LastMintAmount = plan.MintTarget
	s.UnclaimedTokens = plan.MintTarget + s.AccruedTokens
}

// Accrue moves part of an already-held entitlement into the accrued
// networker reserve.
func (s *State) Accrue(amount uint64) {
	s.AccruedTokens += amount
}

// PayAccrued reduces both the accrued reserve and the unclaimed total by a
// claimed accrued amount.
func (s *State) PayAccrued(amount uint64) error {
	if amount > s.AccruedTokens || amount > s.UnclaimedTokens {
		return ErrInsufficientUnclaimed
	}
	s.AccruedTokens -= amount
	s.UnclaimedTokens -= amount
	return nil
}

// PayOut reduces the unclaimed-token total by a claimed amount.
func (s *State) PayOut(amount uint64) error {
	if amount > s.UnclaimedTokens {
		return ErrInsufficientUnclaimed
	}
	s.UnclaimedTokens -= amount
	return nil
}

// BuyerShare is the buyer-pool entitlement for one claimant: the buyer
// fraction of the week's mint, pro-rated by the claimant's weekly value.
func BuyerShare(cfg Config, weekMint, claimantBV, totalBV uint64) (uint64, error) {
	return poolShare(weekMint, cfg.BuyerPoolBps, claimantBV, totalBV)
}

// SellerShare is the seller-pool entitlement for one claimant, pro-rated
// by the claimant's weekly sold value.
func SellerShare(cfg Config, weekMint, claimantBV, totalBV uint64) (uint64, error) {
	return poolShare(weekMint, cfg.SellerPoolBps, claimantBV, totalBV)
}

// NetworkerShare is the referral-pool entitlement, pro-rated by the
// claimant's settlement steps that week, split into an immediately-paid
// part and an accrued part.
func NetworkerShare(cfg Config, weekMint, claimantSteps, totalSteps uint64) (immediate, accrued uint64, err error) {
	share, err := poolShare(weekMint, cfg.NetworkerPoolBps, claimantSteps, totalSteps)
	if err != nil {
		return 0, 0, err
	}
	immediate = share * cfg.NetworkerImmediateBps / bpsDenom
	accrued = share - immediate
	return immediate, accrued, nil
}

func poolShare(weekMint, poolBps, claimant, total uint64) (uint64, error) {
	if total == 0 || claimant == 0 {
		return 0, ErrNothingToClaim
	}
	pool := weekMint * poolBps / bpsDenom
	share := pool * claimant / total
	if share == 0 {
		return 0, ErrNothingToClaim
	}
	return share, nil
}
