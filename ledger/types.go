package ledger

// ValueScale is the number of micro-units in one whole value unit. All
// business values, thresholds and commission amounts are expressed in
// micro-units.
const ValueScale = 1_000_000

// PairCount is the number of independent settlement pairs per node:
// (children 0,1), (children 2,3) and (normal 0,1).
const PairCount = 3

// Node is one participant in the referral tree. Structural data (parent,
// position, path) is mirrored in the tree registry; the node record carries
// the accounting state mutated by settlement and claims.
type Node struct {
	ID       uint64 `json:"id"`
	Addr     string `json:"address"`
	ParentID uint64 `json:"parent_id"` // 0 for the root node
	Position uint8  `json:"position"`  // 0-3 under the parent

	ChildrenBV    [4]uint64 `json:"children_bv"`     // per-child subtree value since last settlement
	ChildrenAggBV [4]uint64 `json:"children_agg_bv"` // lifetime per-child subtree value, never reset
	NormalBV      [2]uint64 `json:"normal_bv"`       // independently paired accumulators

	BV          uint64 `json:"bv"`             // lifetime business value from own purchases
	BVOnBridge  uint64 `json:"bv_on_bridge"`   // lifetime value at migration time (0 if not migrated)
	LastOrderID uint64 `json:"last_order_id"`  // last fully processed order

	PairPeriodStart int64             `json:"pair_period_start"` // start of the period the step counters belong to
	PairSteps       [PairCount]uint32 `json:"pair_steps"`        // per-pair steps taken in that period
	TotalSteps      uint64            `json:"total_steps"`       // cumulative steps, never reset

	Commission       uint64 `json:"commission"`        // withdrawable commission balance
	NetworkerAccrued uint64 `json:"networker_accrued"` // accrued referral token share

	LastBuyerClaimWeek     uint64 `json:"last_buyer_claim_week"`
	LastNetworkerClaimWeek uint64 `json:"last_networker_claim_week"`

	WeekBV    map[uint64]uint64 `json:"week_bv"`    // own business value per settlement week
	WeekSteps map[uint64]uint64 `json:"week_steps"` // pairing steps per settlement week, consumed by claims

	BonusMonth uint64 `json:"bonus_month"` // enrollment month (0 = not enrolled)
	BonusTier  uint8  `json:"bonus_tier"`
	BonusPaid  bool   `json:"bonus_paid"`

	Migrated  bool  `json:"migrated"`
	Active    bool  `json:"active"`
	CreatedAt int64 `json:"created_at"`
}

// TierBV returns the value used for position-tier checks: migrated nodes
// count only value accrued since migration.
func (n *Node) TierBV() uint64 {
	if n.Migrated {
		return n.BV - n.BVOnBridge
	}
	return n.BV
}

// Clone returns a deep copy of the node, including its per-week maps.
func (n *Node) Clone() *Node {
	out := *n
	out.WeekBV = make(map[uint64]uint64, len(n.WeekBV))
	for k, v := range n.WeekBV {
		out.WeekBV[k] = v
	}
	out.WeekSteps = make(map[uint64]uint64, len(n.WeekSteps))
	for k, v := range n.WeekSteps {
		out.WeekSteps[k] = v
	}
	return &out
}

// Seller is a merchant receiving orders. Sellers sit outside the tree.
type Seller struct {
	ID            uint64            `json:"id"`
	Addr          string            `json:"address"`
	BV            uint64            `json:"bv"` // lifetime business value sold
	WeekBV        map[uint64]uint64 `json:"week_bv"`
	LastClaimWeek uint64            `json:"last_claim_week"`
	CreatedAt     int64             `json:"created_at"`
}

// Order is one immutable purchase line. Identifiers are globally monotonic
// starting at 1.
type Order struct {
	ID            uint64 `json:"id"`
	BuyerID       uint64 `json:"buyer_id"`
	SellerID      uint64 `json:"seller_id"`
	SaleValue     uint64 `json:"sale_value"`
	BusinessValue uint64 `json:"business_value"`
	CreatedAt     int64  `json:"created_at"`
}
