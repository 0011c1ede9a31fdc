package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fash-ns/arandao-go/ledger"
	"github.com/fash-ns/arandao-go/tree"
)

func legacyBatch(records []MigrationRecord) MigrationBatch {
	return MigrationBatch{Records: records, Checksum: BatchChecksum(records)}
}

func TestBatchChecksum_SensitiveToContentAndOrder(t *testing.T) {
	a := MigrationRecord{Addr: "m1", Position: 0, BV: 100 * vu, CreatedAt: 1}
	b := MigrationRecord{Addr: "m2", ParentAddr: "m1", Position: 3, BV: 50 * vu, CreatedAt: 2}

	sum := BatchChecksum([]MigrationRecord{a, b})
	assert.Equal(t, sum, BatchChecksum([]MigrationRecord{a, b}))
	assert.NotEqual(t, sum, BatchChecksum([]MigrationRecord{b, a}))

	c := a
	c.BV++
	assert.NotEqual(t, sum, BatchChecksum([]MigrationRecord{c, b}))
}

func TestMigrateUsers_ImportsBatch(t *testing.T) {
	f := newFixture(t, nil)

	batch := legacyBatch([]MigrationRecord{
		{Addr: "m1", Position: 0, BV: 2_000 * vu, CreatedAt: baseTime - 400*86_400},
		{Addr: "m2", ParentAddr: "m1", Position: 0, BV: 100 * vu, CreatedAt: baseTime - 300*86_400},
		{Addr: "m3", ParentAddr: "m1", Position: 3, BV: 80 * vu, CreatedAt: baseTime - 200*86_400},
	})
	require.NoError(t, f.core.MigrateUsers("bridge", batch))

	m1, err := f.core.NodeByAddr("m1")
	require.NoError(t, err)
	assert.True(t, m1.Migrated)
	assert.Equal(t, 2_000*vu, m1.BV)
	assert.Equal(t, 2_000*vu, m1.BVOnBridge)
	// Bridged value does not count toward position tiers.
	assert.Zero(t, m1.TierBV())

	path, err := f.core.NodePath(f.nodeID("m3"))
	require.NoError(t, err)
	assert.Equal(t, []uint8{3}, path)

	// Position 1 stays locked despite the bridged 2000 units.
	_, err = f.core.CreateOrder("fresh", "m1", 1,
		[]OrderLine{{SellerAddr: "shop", SaleValue: 60 * vu, BusinessValue: 60 * vu}}, 60*vu)
	assert.ErrorIs(t, err, ErrPositionLocked)

	// Post-migration purchases unlock tiers normally.
	f.buy("m1", "", 0, 1_000*vu)
	f.buy("fresh", "m1", 1, 60*vu)
}

func TestMigrateUsers_Guards(t *testing.T) {
	f := newFixture(t, nil)
	records := []MigrationRecord{{Addr: "m1", Position: 0, BV: 100 * vu, CreatedAt: baseTime - 100}}

	err := f.core.MigrateUsers("alice", legacyBatch(records))
	assert.ErrorIs(t, err, ErrUnauthorized)

	tampered := legacyBatch(records)
	tampered.Records[0].BV++
	err = f.core.MigrateUsers("bridge", tampered)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	err = f.core.MigrateUsers("bridge", MigrationBatch{})
	assert.ErrorIs(t, err, ErrNoLines)

	f.advance(91 * 24 * time.Hour)
	err = f.core.MigrateUsers("bridge", legacyBatch(records))
	assert.ErrorIs(t, err, ErrMigrationClosed)
}

func TestMigrateUsers_AllOrNothing(t *testing.T) {
	f := newFixture(t, nil)

	batch := legacyBatch([]MigrationRecord{
		{Addr: "m1", Position: 0, BV: 100 * vu, CreatedAt: baseTime - 100},
		{Addr: "m2", ParentAddr: "ghost", Position: 0, BV: 100 * vu, CreatedAt: baseTime - 90},
	})
	err := f.core.MigrateUsers("bridge", batch)
	assert.ErrorIs(t, err, ErrParentNotFound)

	// The valid first record must not have been imported.
	_, err = f.core.NodeByAddr("m1")
	assert.ErrorIs(t, err, ledger.ErrNodeNotFound)

	dup := legacyBatch([]MigrationRecord{
		{Addr: "m1", Position: 0, BV: 100 * vu, CreatedAt: baseTime - 100},
		{Addr: "m2", ParentAddr: "m1", Position: 0, BV: 100 * vu, CreatedAt: baseTime - 90},
		{Addr: "m2", ParentAddr: "m1", Position: 3, BV: 100 * vu, CreatedAt: baseTime - 80},
	})
	err = f.core.MigrateUsers("bridge", dup)
	assert.ErrorIs(t, err, tree.ErrDuplicateNode)
	_, err = f.core.NodeByAddr("m1")
	assert.ErrorIs(t, err, ledger.ErrNodeNotFound)
}
