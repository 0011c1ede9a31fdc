// Package store persists core snapshots in a bbolt database. Records are
// gob-encoded and keyed big-endian so cursor order equals identifier order,
// which the tree rebuild on restore relies on.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/fash-ns/arandao-go/core"
	"github.com/fash-ns/arandao-go/emission"
	"github.com/fash-ns/arandao-go/engine"
	"github.com/fash-ns/arandao-go/ledger"
)

var (
	bucketNodes   = []byte("nodes")
	bucketSellers = []byte("sellers")
	bucketOrders  = []byte("orders")
	bucketDaily   = []byte("daily_stats")
	bucketWeekly  = []byte("weekly_stats")
	bucketState   = []byte("state")
)

var keyMeta = []byte("meta")

// meta carries the singleton parts of a snapshot under one key.
type meta struct {
	NextNodeID   uint64
	NextSellerID uint64
	NextOrderID  uint64
	Params       engine.Params
	Mode         engine.ModeState
	Emission     emission.State
	Genesis      int64
}

// BoltStore wraps a bbolt database holding one snapshot.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath. The parent directory
// is created if it does not exist.
func Open(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketNodes, bucketSellers, bucketOrders, bucketDaily, bucketWeekly, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// idKey encodes an identifier as an 8-byte big-endian key.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Save replaces the stored snapshot in one transaction.
func (s *BoltStore) Save(snap *core.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketNodes, bucketSellers, bucketOrders, bucketDaily, bucketWeekly, bucketState} {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("store: reset bucket %q: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("store: recreate bucket %q: %w", name, err)
			}
		}

		nb := tx.Bucket(bucketNodes)
		for _, n := range snap.Nodes {
			data, err := encodeGob(n)
			if err != nil {
				return fmt.Errorf("store: encode node %d: %w", n.ID, err)
			}
			if err := nb.Put(idKey(n.ID), data); err != nil {
				return fmt.Errorf("store: put node %d: %w", n.ID, err)
			}
		}

		sb := tx.Bucket(bucketSellers)
		for _, sl := range snap.Sellers {
			data, err := encodeGob(sl)
			if err != nil {
				return fmt.Errorf("store: encode seller %d: %w", sl.ID, err)
			}
			if err := sb.Put(idKey(sl.ID), data); err != nil {
				return fmt.Errorf("store: put seller %d: %w", sl.ID, err)
			}
		}

		ob := tx.Bucket(bucketOrders)
		for _, o := range snap.Orders {
			data, err := encodeGob(o)
			if err != nil {
				return fmt.Errorf("store: encode order %d: %w", o.ID, err)
			}
			if err := ob.Put(idKey(o.ID), data); err != nil {
				return fmt.Errorf("store: put order %d: %w", o.ID, err)
			}
		}

		db := tx.Bucket(bucketDaily)
		for num, st := range snap.Daily {
			data, err := encodeGob(st)
			if err != nil {
				return fmt.Errorf("store: encode day %d: %w", num, err)
			}
			if err := db.Put(idKey(num), data); err != nil {
				return fmt.Errorf("store: put day %d: %w", num, err)
			}
		}

		wb := tx.Bucket(bucketWeekly)
		for num, st := range snap.Weekly {
			data, err := encodeGob(st)
			if err != nil {
				return fmt.Errorf("store: encode week %d: %w", num, err)
			}
			if err := wb.Put(idKey(num), data); err != nil {
				return fmt.Errorf("store: put week %d: %w", num, err)
			}
		}

		m := meta{
			NextNodeID:   snap.NextNodeID,
			NextSellerID: snap.NextSellerID,
			NextOrderID:  snap.NextOrderID,
			Params:       snap.Params,
			Mode:         snap.Mode,
			Emission:     snap.Emission,
			Genesis:      snap.Genesis,
		}
		data, err := encodeGob(&m)
		if err != nil {
			return fmt.Errorf("store: encode meta: %w", err)
		}
		return tx.Bucket(bucketState).Put(keyMeta, data)
	})
}

// Load reads the stored snapshot. It fails with ErrNoSnapshot on a fresh
// database.
func (s *BoltStore) Load() (*core.Snapshot, error) {
	snap := &core.Snapshot{
		Daily:  make(map[uint64]engine.PeriodStats),
		Weekly: make(map[uint64]engine.PeriodStats),
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketState).Get(keyMeta)
		if data == nil {
			return ErrNoSnapshot
		}
		var m meta
		if err := decodeGob(data, &m); err != nil {
			return fmt.Errorf("store: decode meta: %w", err)
		}
		snap.NextNodeID = m.NextNodeID
		snap.NextSellerID = m.NextSellerID
		snap.NextOrderID = m.NextOrderID
		snap.Params = m.Params
		snap.Mode = m.Mode
		snap.Emission = m.Emission
		snap.Genesis = m.Genesis

		err := tx.Bucket(bucketNodes).ForEach(func(_, v []byte) error {
			var n ledger.Node
			if err := decodeGob(v, &n); err != nil {
				return fmt.Errorf("store: decode node: %w", err)
			}
			snap.Nodes = append(snap.Nodes, &n)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketSellers).ForEach(func(_, v []byte) error {
			var sl ledger.Seller
			if err := decodeGob(v, &sl); err != nil {
				return fmt.Errorf("store: decode seller: %w", err)
			}
			snap.Sellers = append(snap.Sellers, &sl)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketOrders).ForEach(func(_, v []byte) error {
			var o ledger.Order
			if err := decodeGob(v, &o); err != nil {
				return fmt.Errorf("store: decode order: %w", err)
			}
			snap.Orders = append(snap.Orders, &o)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketDaily).ForEach(func(k, v []byte) error {
			var st engine.PeriodStats
			if err := decodeGob(v, &st); err != nil {
				return fmt.Errorf("store: decode day stats: %w", err)
			}
			snap.Daily[binary.BigEndian.Uint64(k)] = st
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketWeekly).ForEach(func(k, v []byte) error {
			var st engine.PeriodStats
			if err := decodeGob(v, &st); err != nil {
				return fmt.Errorf("store: decode week stats: %w", err)
			}
			snap.Weekly[binary.BigEndian.Uint64(k)] = st
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
