package core

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/fash-ns/arandao-go/tree"
)

// MigrationRecord describes one legacy node to import. Records are applied
// in batch order; a parent may be an existing node or an earlier record in
// the same batch.
type MigrationRecord struct {
	Addr       string `json:"address"`
	ParentAddr string `json:"parent_address"` // empty only for the root record
	Position   uint8  `json:"position"`
	BV         uint64 `json:"business_value"`
	CreatedAt  int64  `json:"created_at"`
}

// MigrationBatch is a checksummed set of legacy records.
type MigrationBatch struct {
	Records  []MigrationRecord `json:"records"`
	Checksum []byte            `json:"checksum"`
}

// BatchChecksum computes the SHA3-256 digest of a record set under a
// fixed-width binary encoding, so both sides of the bridge can verify the
// batch byte for byte.
func BatchChecksum(records []MigrationRecord) []byte {
	h := sha3.New256()
	var buf [8]byte
	writeStr := func(s string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	for _, r := range records {
		writeStr(r.Addr)
		writeStr(r.ParentAddr)
		h.Write([]byte{r.Position})
		binary.BigEndian.PutUint64(buf[:], r.BV)
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(r.CreatedAt))
		h.Write(buf[:])
	}
	return h.Sum(nil)
}

// MigrateUsers imports a batch of legacy nodes. Only the migrator role may
// call it, and only within the post-deployment migration window. The whole
// batch is validated against a shape copy first; any bad record rejects the
// batch without importing anything. Imported value counts as bridged: it is
// excluded from position-tier math and never enters pairing accumulators.
func (c *Core) MigrateUsers(caller string, batch MigrationBatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.access.IsAuthorized(caller, RoleMigrator) {
		return ErrUnauthorized
	}
	now := c.clock().Unix()
	if now > c.genesis+MigrationWindowSeconds {
		return ErrMigrationClosed
	}
	if len(batch.Records) == 0 {
		return ErrNoLines
	}
	if !bytes.Equal(batch.Checksum, BatchChecksum(batch.Records)) {
		return ErrChecksumMismatch
	}

	// Dry run on a shape copy with the identifiers the records would get.
	nextID, _, _ := c.ledger.NextIDs()
	shape := c.registry.CloneShape()
	pending := make(map[string]uint64, len(batch.Records))
	for i, rec := range batch.Records {
		if rec.Addr == "" {
			return fmt.Errorf("%w: record %d", ErrInvalidLine, i)
		}
		if _, err := c.ledger.NodeByAddr(rec.Addr); err == nil {
			return fmt.Errorf("%w: record %d address %q", tree.ErrDuplicateNode, i, rec.Addr)
		}
		if _, ok := pending[rec.Addr]; ok {
			return fmt.Errorf("%w: record %d address %q", tree.ErrDuplicateNode, i, rec.Addr)
		}

		var parentID uint64
		if rec.ParentAddr != "" {
			if p, err := c.ledger.NodeByAddr(rec.ParentAddr); err == nil {
				parentID = p.ID
			} else if id, ok := pending[rec.ParentAddr]; ok {
				parentID = id
			} else {
				return fmt.Errorf("%w: record %d parent %q", ErrParentNotFound, i, rec.ParentAddr)
			}
		}

		id := nextID + uint64(i)
		if _, err := shape.Add(id, parentID, rec.Position); err != nil {
			return fmt.Errorf("core: record %d: %w", i, err)
		}
		pending[rec.Addr] = id
	}

	// Validation passed; apply for real.
	for _, rec := range batch.Records {
		var parentID uint64
		if rec.ParentAddr != "" {
			p, err := c.ledger.NodeByAddr(rec.ParentAddr)
			if err != nil {
				return err
			}
			parentID = p.ID
		}
		n, err := c.ledger.AddNode(rec.Addr, parentID, rec.Position, rec.CreatedAt)
		if err != nil {
			return err
		}
		if _, err := c.registry.Add(n.ID, parentID, rec.Position); err != nil {
			return err
		}
		n.BV = rec.BV
		n.BVOnBridge = rec.BV
		n.Migrated = true
	}

	c.log.Info("migrated legacy batch",
		zap.String("caller", caller),
		zap.Int("records", len(batch.Records)),
	)
	return nil
}
