package core

import (
	"github.com/fash-ns/arandao-go/emission"
	"github.com/fash-ns/arandao-go/engine"
	"github.com/fash-ns/arandao-go/ledger"
	"github.com/fash-ns/arandao-go/tree"
)

// Snapshot is the full persistable state of a core. The tree registry is
// not stored; it is rebuilt from the node records, whose identifier order
// guarantees every parent precedes its children.
type Snapshot struct {
	Nodes   []*ledger.Node   `json:"nodes"`
	Sellers []*ledger.Seller `json:"sellers"`
	Orders  []*ledger.Order  `json:"orders"`

	NextNodeID   uint64 `json:"next_node_id"`
	NextSellerID uint64 `json:"next_seller_id"`
	NextOrderID  uint64 `json:"next_order_id"`

	Params   engine.Params                 `json:"params"`
	Mode     engine.ModeState              `json:"mode"`
	Daily    map[uint64]engine.PeriodStats `json:"daily_stats"`
	Weekly   map[uint64]engine.PeriodStats `json:"weekly_stats"`
	Emission emission.State                `json:"emission"`
	Genesis  int64                         `json:"genesis"`
}

// Snapshot captures the current state for persistence.
func (c *Core) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	nextNode, nextSeller, nextOrder := c.ledger.NextIDs()
	snap := &Snapshot{
		NextNodeID:   nextNode,
		NextSellerID: nextSeller,
		NextOrderID:  nextOrder,
		Params:       *c.params,
		Mode:         *c.mode,
		Daily:        make(map[uint64]engine.PeriodStats, len(c.stats.Daily)),
		Weekly:       make(map[uint64]engine.PeriodStats, len(c.stats.Weekly)),
		Emission:     *c.emission,
		Genesis:      c.genesis,
	}
	for _, n := range c.ledger.Nodes() {
		snap.Nodes = append(snap.Nodes, n.Clone())
	}
	for _, s := range c.ledger.Sellers() {
		cp := *s
		cp.WeekBV = make(map[uint64]uint64, len(s.WeekBV))
		for k, v := range s.WeekBV {
			cp.WeekBV[k] = v
		}
		snap.Sellers = append(snap.Sellers, &cp)
	}
	for _, o := range c.ledger.Orders() {
		cp := *o
		snap.Orders = append(snap.Orders, &cp)
	}
	for k, v := range c.stats.Daily {
		snap.Daily[k] = *v
	}
	for k, v := range c.stats.Weekly {
		snap.Weekly[k] = *v
	}
	snap.Emission.WeekMint = make(map[uint64]uint64, len(c.emission.WeekMint))
	for k, v := range c.emission.WeekMint {
		snap.Emission.WeekMint[k] = v
	}
	return snap
}

// RestoreSnapshot replaces the core's state with a persisted snapshot.
func (c *Core) RestoreSnapshot(snap *Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := snap.Params.Validate(); err != nil {
		return err
	}

	c.ledger = ledger.Restore(snap.Nodes, snap.Sellers, snap.Orders,
		snap.NextNodeID, snap.NextSellerID, snap.NextOrderID)

	*c.registry = *tree.NewRegistry()
	for _, n := range snap.Nodes {
		if _, err := c.registry.Add(n.ID, n.ParentID, n.Position); err != nil {
			return err
		}
	}

	*c.params = snap.Params
	*c.mode = snap.Mode
	c.stats.Daily = make(map[uint64]*engine.PeriodStats, len(snap.Daily))
	for k, v := range snap.Daily {
		cp := v
		c.stats.Daily[k] = &cp
	}
	c.stats.Weekly = make(map[uint64]*engine.PeriodStats, len(snap.Weekly))
	for k, v := range snap.Weekly {
		cp := v
		c.stats.Weekly[k] = &cp
	}
	*c.emission = snap.Emission
	if c.emission.WeekMint == nil {
		c.emission.WeekMint = make(map[uint64]uint64)
	}
	c.genesis = snap.Genesis
	return nil
}
