package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWeek = uint64(2_800)

func TestComputeWeek_BootstrapPriceAtZeroSupply(t *testing.T) {
	s := NewState()
	cfg := DefaultConfig()

	plan, err := ComputeWeek(s, cfg, testWeek, 10_000_000_000, 500_000_000, 0)
	require.NoError(t, err)

	assert.Equal(t, cfg.BootstrapPrice, plan.Price)
	// 5% of weekly value at the bootstrap price.
	want := uint64(10_000_000_000) * cfg.MintBps / 10_000 / cfg.BootstrapPrice
	assert.Equal(t, want, plan.MintTarget)
	assert.Equal(t, plan.MintTarget, plan.Shortfall)
}

func TestComputeWeek_PriceReconstructsWeightedValue(t *testing.T) {
	s := NewState()
	cfg := DefaultConfig()

	weeklyBV := uint64(80_000_000_000)
	reserve := uint64(2_000_000_000)
	supply := uint64(10_000)

	plan, err := ComputeWeek(s, cfg, testWeek, weeklyBV, reserve, supply)
	require.NoError(t, err)

	weighted := weeklyBV*cfg.WeightBps/10_000 + reserve
	reconstructed := plan.Price * supply
	assert.InDelta(t, float64(weighted), float64(reconstructed), float64(supply),
		"price times adjusted supply must reconstruct the weighted input within rounding")
}

func TestComputeWeek_AdjustsSupplyForHeldTokens(t *testing.T) {
	s := NewState()
	s.UnclaimedTokens = 4_000
	cfg := DefaultConfig()

	plan, err := ComputeWeek(s, cfg, testWeek, 80_000_000_000, 0, 10_000)
	require.NoError(t, err)

	weighted := uint64(80_000_000_000) * cfg.WeightBps / 10_000
	assert.Equal(t, weighted/6_000, plan.Price)
}

func TestComputeWeek_CapAndShortfall(t *testing.T) {
	s := NewState()
	s.UnclaimedTokens = 300
	cfg := DefaultConfig()
	cfg.MaxWeeklyMint = 1_000

	// Enormous weekly value at bootstrap price would mint far above the cap.
	plan, err := ComputeWeek(s, cfg, testWeek, 1<<50, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, cfg.MaxWeeklyMint, plan.MintTarget)
	assert.Equal(t, uint64(700), plan.Shortfall, "mint only the shortfall over held tokens")
}

func TestComputeWeek_IdempotentPerWeek(t *testing.T) {
	s := NewState()
	cfg := DefaultConfig()

	plan, err := ComputeWeek(s, cfg, testWeek, 10_000_000_000, 0, 0)
	require.NoError(t, err)
	s.Commit(plan)

	_, err = ComputeWeek(s, cfg, testWeek, 10_000_000_000, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyMinted)

	// A later week is fine.
	_, err = ComputeWeek(s, cfg, testWeek+1, 10_000_000_000, 0, 0)
	assert.NoError(t, err)
}

func TestState_CommitAndPayOut(t *testing.T) {
	s := NewState()
	s.Commit(&WeekPlan{Week: testWeek, Price: 10, MintTarget: 500, Shortfall: 500})

	got, ok := s.MintFor(testWeek)
	require.True(t, ok)
	assert.Equal(t, uint64(500), got)
	assert.Equal(t, uint64(500), s.UnclaimedTokens)

	require.NoError(t, s.PayOut(200))
	assert.Equal(t, uint64(300), s.UnclaimedTokens)
	assert.ErrorIs(t, s.PayOut(301), ErrInsufficientUnclaimed)
}

func TestState_AccruedSurvivesWeeklyAbsorption(t *testing.T) {
	s := NewState()
	s.Commit(&WeekPlan{Week: testWeek, Price: 10, MintTarget: 1_000, Shortfall: 1_000})

	// 400 tokens become an accrued networker entitlement.
	s.Accrue(400)
	require.NoError(t, s.PayOut(100))

	// Next week: 500 leftover pool tokens, of which 400 are reserved.
	plan, err := ComputeWeek(s, DefaultConfig(), testWeek+1, 0, 0, 10_000)
	require.NoError(t, err)
	assert.Zero(t, plan.MintTarget)
	s.Commit(plan)

	assert.Equal(t, uint64(400), s.UnclaimedTokens, "accrued entitlements stay held")
	require.NoError(t, s.PayAccrued(400))
	assert.Zero(t, s.AccruedTokens)
	assert.Zero(t, s.UnclaimedTokens)
	assert.ErrorIs(t, s.PayAccrued(1), ErrInsufficientUnclaimed)
}

func TestPoolShares_ProRata(t *testing.T) {
	cfg := DefaultConfig()
	weekMint := uint64(100_000)

	buyer, err := BuyerShare(cfg, weekMint, 25, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), buyer, "40 percent pool, quarter of the value")

	seller, err := SellerShare(cfg, weekMint, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), seller, "20 percent pool, half of the value")

	immediate, accrued, err := NetworkerShare(cfg, weekMint, 10, 40)
	require.NoError(t, err)
	// 40% pool x 1/4 of steps = 10_000, split 60/40.
	assert.Equal(t, uint64(6_000), immediate)
	assert.Equal(t, uint64(4_000), accrued)
}

func TestPoolShares_NothingToClaim(t *testing.T) {
	cfg := DefaultConfig()

	_, err := BuyerShare(cfg, 100_000, 0, 100)
	assert.ErrorIs(t, err, ErrNothingToClaim)
	_, err = SellerShare(cfg, 100_000, 10, 0)
	assert.ErrorIs(t, err, ErrNothingToClaim)
	_, _, err = NetworkerShare(cfg, 0, 10, 100)
	assert.ErrorIs(t, err, ErrNothingToClaim)
}
