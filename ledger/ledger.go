package ledger

// secondsPerWeek is the settlement-week length used to seed claim cursors.
const secondsPerWeek = 604_800

// Ledger holds the node, seller and order tables with their address
// indexes. It performs no tree-shape or admission checks; those belong to
// the registry and the orchestrating core.
type Ledger struct {
	nodes      map[uint64]*Node
	nodeByAddr map[string]uint64

	sellers      map[uint64]*Seller
	sellerByAddr map[string]uint64

	orders map[uint64]*Order

	nextNodeID   uint64
	nextSellerID uint64
	nextOrderID  uint64
}

// New creates an empty ledger. Identifiers for nodes, sellers and orders
// all start at 1.
func New() *Ledger {
	return &Ledger{
		nodes:        make(map[uint64]*Node),
		nodeByAddr:   make(map[string]uint64),
		sellers:      make(map[uint64]*Seller),
		sellerByAddr: make(map[string]uint64),
		orders:       make(map[uint64]*Order),
		nextNodeID:   1,
		nextSellerID: 1,
		nextOrderID:  1,
	}
}

// AddNode appends a node record for addr and returns it. The address must
// be unused.
func (l *Ledger) AddNode(addr string, parentID uint64, position uint8, createdAt int64) (*Node, error) {
	if addr == "" {
		return nil, ErrEmptyAddress
	}
	if _, ok := l.nodeByAddr[addr]; ok {
		return nil, ErrDuplicateAddress
	}

	n := &Node{
		ID:                     l.nextNodeID,
		Addr:                   addr,
		ParentID:               parentID,
		Position:               position,
		WeekBV:                 make(map[uint64]uint64),
		WeekSteps:              make(map[uint64]uint64),
		LastNetworkerClaimWeek: uint64(createdAt) / secondsPerWeek,
		Active:                 true,
		CreatedAt:              createdAt,
	}
	l.nodes[n.ID] = n
	l.nodeByAddr[addr] = n.ID
	l.nextNodeID++
	return n, nil
}

// AddSeller appends a seller record for addr and returns it.
func (l *Ledger) AddSeller(addr string, createdAt int64) (*Seller, error) {
	if addr == "" {
		return nil, ErrEmptyAddress
	}
	if _, ok := l.sellerByAddr[addr]; ok {
		return nil, ErrDuplicateAddress
	}

	s := &Seller{
		ID:        l.nextSellerID,
		Addr:      addr,
		WeekBV:    make(map[uint64]uint64),
		CreatedAt: createdAt,
	}
	l.sellers[s.ID] = s
	l.sellerByAddr[addr] = s.ID
	l.nextSellerID++
	return s, nil
}

// CreateOrder appends an immutable order with the next identifier and
// immediately credits the full business value to the buyer's and seller's
// lifetime and week totals. Pairing settlement happens separately.
func (l *Ledger) CreateOrder(buyerID, sellerID, saleValue, businessValue uint64, createdAt int64, week uint64) (*Order, error) {
	buyer, ok := l.nodes[buyerID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	seller, ok := l.sellers[sellerID]
	if !ok {
		return nil, ErrSellerNotFound
	}
	if businessValue == 0 {
		return nil, ErrZeroValue
	}

	o := &Order{
		ID:            l.nextOrderID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		SaleValue:     saleValue,
		BusinessValue: businessValue,
		CreatedAt:     createdAt,
	}
	l.orders[o.ID] = o
	l.nextOrderID++

	buyer.BV += businessValue
	buyer.WeekBV[week] += businessValue
	seller.BV += businessValue
	seller.WeekBV[week] += businessValue

	return o, nil
}

// NodeByID returns the node for id.
func (l *Ledger) NodeByID(id uint64) (*Node, error) {
	n, ok := l.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

// NodeByAddr returns the node registered for addr.
func (l *Ledger) NodeByAddr(addr string) (*Node, error) {
	id, ok := l.nodeByAddr[addr]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return l.nodes[id], nil
}

// SellerByID returns the seller for id.
func (l *Ledger) SellerByID(id uint64) (*Seller, error) {
	s, ok := l.sellers[id]
	if !ok {
		return nil, ErrSellerNotFound
	}
	return s, nil
}

// SellerByAddr returns the seller registered for addr.
func (l *Ledger) SellerByAddr(addr string) (*Seller, error) {
	id, ok := l.sellerByAddr[addr]
	if !ok {
		return nil, ErrSellerNotFound
	}
	return l.sellers[id], nil
}

// OrderByID returns the order for id.
func (l *Ledger) OrderByID(id uint64) (*Order, error) {
	o, ok := l.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ReplaceNode swaps the stored record for node.ID. It backs the
// copy-mutate-commit pattern used by settlement.
func (l *Ledger) ReplaceNode(n *Node) {
	l.nodes[n.ID] = n
}

// Nodes returns all node records ordered by identifier.
func (l *Ledger) Nodes() []*Node {
	out := make([]*Node, 0, len(l.nodes))
	for id := uint64(1); id < l.nextNodeID; id++ {
		if n, ok := l.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Sellers returns all seller records ordered by identifier.
func (l *Ledger) Sellers() []*Seller {
	out := make([]*Seller, 0, len(l.sellers))
	for id := uint64(1); id < l.nextSellerID; id++ {
		if s, ok := l.sellers[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Orders returns all orders ordered by identifier.
func (l *Ledger) Orders() []*Order {
	out := make([]*Order, 0, len(l.orders))
	for id := uint64(1); id < l.nextOrderID; id++ {
		if o, ok := l.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Counts returns the number of nodes, sellers and orders.
func (l *Ledger) Counts() (nodes, sellers, orders int) {
	return len(l.nodes), len(l.sellers), len(l.orders)
}

// NextIDs returns the next node, seller and order identifiers. Used by
// persistence snapshots.
func (l *Ledger) NextIDs() (node, seller, order uint64) {
	return l.nextNodeID, l.nextSellerID, l.nextOrderID
}

// Restore rebuilds a ledger from persisted records.
func Restore(nodes []*Node, sellers []*Seller, orders []*Order, nextNode, nextSeller, nextOrder uint64) *Ledger {
	l := New()
	for _, n := range nodes {
		if n.WeekBV == nil {
			n.WeekBV = make(map[uint64]uint64)
		}
		if n.WeekSteps == nil {
			n.WeekSteps = make(map[uint64]uint64)
		}
		l.nodes[n.ID] = n
		l.nodeByAddr[n.Addr] = n.ID
	}
	for _, s := range sellers {
		if s.WeekBV == nil {
			s.WeekBV = make(map[uint64]uint64)
		}
		l.sellers[s.ID] = s
		l.sellerByAddr[s.Addr] = s.ID
	}
	for _, o := range orders {
		l.orders[o.ID] = o
	}
	l.nextNodeID = nextNode
	l.nextSellerID = nextSeller
	l.nextOrderID = nextOrder
	return l
}
