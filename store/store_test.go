package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fash-ns/arandao-go/core"
	"github.com/fash-ns/arandao-go/emission"
	"github.com/fash-ns/arandao-go/engine"
	"github.com/fash-ns/arandao-go/ledger"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "arandao.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot() *core.Snapshot {
	return &core.Snapshot{
		Nodes: []*ledger.Node{
			{ID: 1, Addr: "a", Position: 0, BV: 100, WeekBV: map[uint64]uint64{7: 100}, Active: true, CreatedAt: 1_000},
			{ID: 2, Addr: "b", ParentID: 1, Position: 3, BV: 50, WeekSteps: map[uint64]uint64{7: 2}, Active: true, CreatedAt: 2_000},
		},
		Sellers: []*ledger.Seller{
			{ID: 1, Addr: "shop", BV: 150, WeekBV: map[uint64]uint64{7: 150}, CreatedAt: 1_000},
		},
		Orders: []*ledger.Order{
			{ID: 1, BuyerID: 1, SellerID: 1, SaleValue: 100, BusinessValue: 100, CreatedAt: 1_000},
			{ID: 2, BuyerID: 2, SellerID: 1, SaleValue: 50, BusinessValue: 50, CreatedAt: 2_000},
		},
		NextNodeID:   3,
		NextSellerID: 2,
		NextOrderID:  3,
		Params:       engine.DefaultParams(),
		Mode:         engine.ModeState{WeeklyAt: 4_838_400, SwitchedAt: 4_800_000},
		Daily:        map[uint64]engine.PeriodStats{55: {Steps: 4, FlushOuts: 1, BV: 150}},
		Weekly:       map[uint64]engine.PeriodStats{7: {Steps: 4, BV: 150}},
		Emission: emission.State{
			LastMintWeek:        7,
			LastMintAmount:      15,
			UnclaimedCommission: 40,
			UnclaimedTokens:     12,
			AccruedTokens:       3,
			WeekMint:            map[uint64]uint64{7: 15},
		},
		Genesis: 1_000,
	}
}

func TestLoad_EmptyDatabase(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := sampleSnapshot()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_ReplacesPrevious(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	next := sampleSnapshot()
	next.Nodes = next.Nodes[:1]
	next.Orders = nil
	next.NextNodeID = 2
	next.NextOrderID = 1
	require.NoError(t, s.Save(next))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 1)
	assert.Empty(t, got.Orders)
	assert.Equal(t, uint64(2), got.NextNodeID)
}
