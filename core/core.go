package core

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fash-ns/arandao-go/bonus"
	"github.com/fash-ns/arandao-go/emission"
	"github.com/fash-ns/arandao-go/engine"
	"github.com/fash-ns/arandao-go/ledger"
	"github.com/fash-ns/arandao-go/metrics"
	"github.com/fash-ns/arandao-go/tree"
)

// BonusEarlyWeeks is the window after genesis within which enrolled nodes
// get the higher bonus tier.
const BonusEarlyWeeks = 8

// MigrationWindowSeconds is the post-deployment window during which legacy
// imports are accepted.
const MigrationWindowSeconds = 90 * engine.DaySeconds

// OrderLine is one seller line of a purchase transaction.
type OrderLine struct {
	SellerAddr    string `json:"seller_address"`
	SaleValue     uint64 `json:"sale_value"`
	BusinessValue uint64 `json:"business_value"`
}

// Deps carries the collaborators and optional overrides for New.
type Deps struct {
	Value  ValueTransfer
	Token  TokenBackend
	Price  PriceSource
	Access AccessControl
	Bonus  bonus.Pool

	Log   *zap.Logger      // nop logger when nil
	Clock func() time.Time // time.Now when nil

	Params   *engine.Params   // defaults when nil
	Emission *emission.Config // defaults when nil
	Genesis  int64            // clock time when 0
}

// Core composes the tree registry, order ledger, pairing engine and
// emission state behind the operations exposed to collaborators. Every
// public operation is atomic: it either commits fully or leaves all
// balances and counters unchanged.
type Core struct {
	mu sync.Mutex

	ledger   *ledger.Ledger
	registry *tree.Registry
	engine   *engine.Engine
	params   *engine.Params
	mode     *engine.ModeState
	stats    *engine.StatsTable
	emission *emission.State
	emcfg    emission.Config

	value  ValueTransfer
	token  TokenBackend
	price  PriceSource
	access AccessControl
	bonus  bonus.Pool

	clock   func() time.Time
	log     *zap.Logger
	genesis int64
}

// New wires a core from its collaborators.
func New(deps Deps) (*Core, error) {
	if deps.Value == nil || deps.Token == nil || deps.Price == nil || deps.Access == nil || deps.Bonus == nil {
		return nil, ErrMissingDependency
	}

	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	params := engine.DefaultParams()
	if deps.Params != nil {
		params = *deps.Params
	}
	emcfg := emission.DefaultConfig()
	if deps.Emission != nil {
		emcfg = *deps.Emission
	}
	genesis := deps.Genesis
	if genesis == 0 {
		genesis = clock().Unix()
	}

	c := &Core{
		ledger:   ledger.New(),
		registry: tree.NewRegistry(),
		params:   &params,
		mode:     &engine.ModeState{},
		stats:    engine.NewStatsTable(),
		emission: emission.NewState(),
		emcfg:    emcfg,
		value:    deps.Value,
		token:    deps.Token,
		price:    deps.Price,
		access:   deps.Access,
		bonus:    deps.Bonus,
		clock:    clock,
		log:      log,
		genesis:  genesis,
	}
	c.engine = engine.New(c.registry, c.params, c.mode, c.stats, log)
	return c, nil
}

// positionOpen reports whether the parent's value tier has opened the
// position. Outer positions (0, 3) are always open; position 1 opens at
// tier 1, position 2 at tier 2.
func positionOpen(tierBV uint64, position uint8) bool {
	switch position {
	case 0, 3:
		return true
	case 1:
		return tierBV >= engine.Tier1BV
	case 2:
		return tierBV >= engine.Tier2BV
	default:
		return false
	}
}

// CreateOrder is the single entry point the marketplace collaborator calls
// after collecting payment. Each line becomes its own immutable order. A
// first-time buyer is admitted under the tree-shape and minimum-value
// rules; failure of any check, or of the value transfer, leaves no trace.
func (c *Core) CreateOrder(buyerAddr, parentAddr string, position uint8, lines []OrderLine, totalValue uint64) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	var totalSale, totalBV uint64
	for i, ln := range lines {
		if ln.SellerAddr == "" || ln.BusinessValue == 0 {
			return nil, fmt.Errorf("%w: line %d", ErrInvalidLine, i)
		}
		totalSale += ln.SaleValue
		totalBV += ln.BusinessValue
	}
	if totalSale != totalValue {
		return nil, fmt.Errorf("%w: lines %d, total %d", ErrValueMismatch, totalSale, totalValue)
	}

	now := c.clock().Unix()

	buyer, err := c.ledger.NodeByAddr(buyerAddr)
	newBuyer := err != nil
	var parentID uint64
	if newBuyer {
		if buyerAddr == "" {
			return nil, ledger.ErrEmptyAddress
		}
		if totalBV < c.params.MinNodeValue {
			return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientValue, totalBV, c.params.MinNodeValue)
		}
		if c.registry.Len() == 0 {
			// The very first node is the parentless root at position 0.
			if parentAddr != "" || position != 0 {
				return nil, tree.ErrInvalidRoot
			}
		} else {
			parent, perr := c.ledger.NodeByAddr(parentAddr)
			if perr != nil {
				return nil, fmt.Errorf("%w: %q", ErrParentNotFound, parentAddr)
			}
			if position >= tree.MaxChildren {
				return nil, tree.ErrInvalidPosition
			}
			if !positionOpen(parent.TierBV(), position) {
				return nil, fmt.Errorf("%w: position %d", ErrPositionLocked, position)
			}
			if c.registry.Occupied(parent.ID)[position] {
				return nil, tree.ErrPositionOccupied
			}
			parentID = parent.ID
		}
	}

	// All checks passed; collect the payment before mutating any table.
	if err := c.value.TransferIn(buyerAddr, totalValue); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	if newBuyer {
		buyer, err = c.ledger.AddNode(buyerAddr, parentID, position, now)
		if err != nil {
			return nil, err
		}
		if _, err := c.registry.Add(buyer.ID, parentID, position); err != nil {
			return nil, err
		}
		c.log.Info("admitted node",
			zap.Uint64("id", buyer.ID),
			zap.String("address", buyerAddr),
			zap.Uint64("parent", parentID),
			zap.Uint8("position", position),
		)
	}

	week := engine.WeekOf(now)
	ids := make([]uint64, 0, len(lines))
	for _, ln := range lines {
		seller, err := c.ledger.SellerByAddr(ln.SellerAddr)
		if err != nil {
			if seller, err = c.ledger.AddSeller(ln.SellerAddr, now); err != nil {
				return nil, err
			}
		}
		o, err := c.ledger.CreateOrder(buyer.ID, seller.ID, ln.SaleValue, ln.BusinessValue, now, week)
		if err != nil {
			return nil, err
		}
		c.stats.WeeklyFor(week).BV += ln.BusinessValue
		ids = append(ids, o.ID)
		metrics.OrdersCreated.Inc()
	}
	return ids, nil
}

// Settle consumes a batch of order identifiers for one node. Identifiers
// must be strictly increasing and above the node's settlement pointer, and
// must reference closed periods only.
func (c *Core) Settle(nodeID uint64, orderIDs []uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ledger.NodeByID(nodeID)
	if err != nil {
		return err
	}
	orders := make([]*ledger.Order, len(orderIDs))
	for i, id := range orderIDs {
		if orders[i], err = c.ledger.OrderByID(id); err != nil {
			return err
		}
	}

	now := c.clock().Unix()
	res, err := c.engine.Settle(node, orders, now)
	if err != nil {
		return err
	}

	if res.BonusEligible {
		month := engine.MonthOf(now)
		tier := uint8(1)
		if res.Node.CreatedAt <= c.genesis+BonusEarlyWeeks*engine.WeekSeconds {
			tier = 2
		}
		// Collaborator failure aborts the whole settlement.
		if err := c.bonus.Submit(nodeID, month, tier); err != nil {
			return err
		}
		res.Node.BonusMonth = month
		res.Node.BonusTier = tier
	}

	c.ledger.ReplaceNode(res.Node)
	c.engine.Commit(res)
	c.emission.UnclaimedCommission += res.CommissionDelta

	metrics.PairSteps.Add(float64(res.Steps))
	metrics.FlushOuts.Add(float64(res.FlushOuts))
	metrics.CommissionCredited.Add(float64(res.CommissionDelta))
	metrics.UnclaimedCommission.Set(float64(c.emission.UnclaimedCommission))
	return nil
}

// WithdrawCommission pays out part of a node's withdrawable commission.
func (c *Core) WithdrawCommission(addr string, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ledger.NodeByAddr(addr)
	if err != nil {
		return err
	}
	if amount == 0 || amount > node.Commission {
		return fmt.Errorf("%w: %d of %d", ErrInsufficientBalance, amount, node.Commission)
	}

	if err := c.value.TransferOut(addr, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	node.Commission -= amount
	c.emission.UnclaimedCommission -= amount
	metrics.UnclaimedCommission.Set(float64(c.emission.UnclaimedCommission))
	return nil
}

// RunEmission computes and mints the weekly emission for a fully elapsed
// settlement week. It is idempotent per week: a second call fails.
func (c *Core) RunEmission(week uint64) (*emission.WeekPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().Unix()
	if week >= engine.WeekOf(now) {
		return nil, fmt.Errorf("%w: week %d", ErrWeekOpen, week)
	}

	reserve, err := c.price.Price()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPriceUnavailable, err)
	}
	supply, err := c.token.TotalSupply()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenBackend, err)
	}

	weeklyBV := c.stats.WeeklyFor(week).BV
	plan, err := emission.ComputeWeek(c.emission, c.emcfg, week, weeklyBV, reserve, supply)
	if err != nil {
		return nil, err
	}

	if plan.Shortfall > 0 {
		if err := c.token.Mint(plan.Shortfall); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenBackend, err)
		}
	}
	c.emission.Commit(plan)
	metrics.TokensMinted.Add(float64(plan.Shortfall))

	c.log.Info("weekly emission",
		zap.Uint64("week", week),
		zap.Uint64("price", plan.Price),
		zap.Uint64("mint_target", plan.MintTarget),
		zap.Uint64("minted", plan.Shortfall),
	)
	return plan, nil
}

// ClaimBuyerShare pays the buyer-pool entitlement for one minted week,
// once per claimant per week.
func (c *Core) ClaimBuyerShare(addr string, week uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ledger.NodeByAddr(addr)
	if err != nil {
		return 0, err
	}
	mint, ok := c.emission.MintFor(week)
	if !ok {
		return 0, fmt.Errorf("%w: week %d", emission.ErrWeekNotMinted, week)
	}
	if week <= node.LastBuyerClaimWeek {
		return 0, fmt.Errorf("%w: week %d", ErrAlreadyClaimed, week)
	}

	amount, err := emission.BuyerShare(c.emcfg, mint, node.WeekBV[week], c.stats.WeeklyFor(week).BV)
	if err != nil {
		return 0, err
	}
	if amount > c.emission.UnclaimedTokens {
		return 0, emission.ErrInsufficientUnclaimed
	}

	if err := c.token.Transfer(addr, amount); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenBackend, err)
	}

	_ = c.emission.PayOut(amount)
	node.LastBuyerClaimWeek = week
	return amount, nil
}

// ClaimSellerShare pays the seller-pool entitlement for one minted week.
func (c *Core) ClaimSellerShare(addr string, week uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seller, err := c.ledger.SellerByAddr(addr)
	if err != nil {
		return 0, err
	}
	mint, ok := c.emission.MintFor(week)
	if !ok {
		return 0, fmt.Errorf("%w: week %d", emission.ErrWeekNotMinted, week)
	}
	if week <= seller.LastClaimWeek {
		return 0, fmt.Errorf("%w: week %d", ErrAlreadyClaimed, week)
	}

	amount, err := emission.SellerShare(c.emcfg, mint, seller.WeekBV[week], c.stats.WeeklyFor(week).BV)
	if err != nil {
		return 0, err
	}
	if amount > c.emission.UnclaimedTokens {
		return 0, emission.ErrInsufficientUnclaimed
	}

	if err := c.token.Transfer(addr, amount); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenBackend, err)
	}

	_ = c.emission.PayOut(amount)
	seller.LastClaimWeek = week
	return amount, nil
}

// ClaimNetworkerShare pays the immediately-due part of the referral-pool
// entitlement for one minted week and accrues the remainder. The week's
// step balance is consumed, so a second claim finds nothing.
func (c *Core) ClaimNetworkerShare(addr string, week uint64) (immediate, accrued uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ledger.NodeByAddr(addr)
	if err != nil {
		return 0, 0, err
	}
	mint, ok := c.emission.MintFor(week)
	if !ok {
		return 0, 0, fmt.Errorf("%w: week %d", emission.ErrWeekNotMinted, week)
	}

	immediate, accrued, err = emission.NetworkerShare(c.emcfg, mint, node.WeekSteps[week], c.stats.WeeklyFor(week).Steps)
	if err != nil {
		return 0, 0, err
	}
	if immediate > c.emission.UnclaimedTokens {
		return 0, 0, emission.ErrInsufficientUnclaimed
	}

	if err := c.token.Transfer(addr, immediate); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrTokenBackend, err)
	}

	_ = c.emission.PayOut(immediate)
	c.emission.Accrue(accrued)
	node.NetworkerAccrued += accrued
	delete(node.WeekSteps, week)
	return immediate, accrued, nil
}

// ClaimAccruedNetworker pays out the whole accrued referral balance, at
// most once per accrual interval.
func (c *Core) ClaimAccruedNetworker(addr string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ledger.NodeByAddr(addr)
	if err != nil {
		return 0, err
	}
	week := engine.WeekOf(c.clock().Unix())
	if week < node.LastNetworkerClaimWeek+c.emcfg.AccrualWeeks {
		return 0, fmt.Errorf("%w: due week %d", ErrAccrualNotDue, node.LastNetworkerClaimWeek+c.emcfg.AccrualWeeks)
	}
	amount := node.NetworkerAccrued
	if amount == 0 {
		return 0, emission.ErrNothingToClaim
	}

	if err := c.token.Transfer(addr, amount); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenBackend, err)
	}

	_ = c.emission.PayAccrued(amount)
	node.NetworkerAccrued = 0
	node.LastNetworkerClaimWeek = week
	return amount, nil
}

// ClaimBonus pays the node's bonus-pool share for its enrollment month,
// once, after the month has fully elapsed.
func (c *Core) ClaimBonus(addr string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ledger.NodeByAddr(addr)
	if err != nil {
		return 0, err
	}
	if node.BonusMonth == 0 {
		return 0, bonus.ErrNotEnrolled
	}
	if node.BonusPaid {
		return 0, fmt.Errorf("%w: month %d", ErrAlreadyClaimed, node.BonusMonth)
	}
	if engine.MonthOf(c.clock().Unix()) <= node.BonusMonth {
		return 0, fmt.Errorf("%w: month %d", ErrMonthOpen, node.BonusMonth)
	}

	share, err := c.bonus.ShareOf(node.ID, node.BonusMonth)
	if err != nil {
		return 0, err
	}
	if err := c.value.TransferOut(addr, share); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	node.BonusPaid = true
	return share, nil
}

// SetParams replaces the tunable parameters. Only authorized admins may
// call it, only while weekly settlement is active, and only within the
// fixed bounds. Already-settled periods are unaffected.
func (c *Core) SetParams(caller string, p engine.Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.access.IsAuthorized(caller, RoleAdmin) {
		return ErrUnauthorized
	}
	if !c.mode.WeeklyActive(c.clock().Unix()) {
		return ErrDailyModeActive
	}
	if err := p.Validate(); err != nil {
		return err
	}
	*c.params = p
	c.log.Info("parameters updated", zap.String("caller", caller))
	return nil
}

// RecoverAssets pays pooled value out to an address. Emergency use,
// admin-gated.
func (c *Core) RecoverAssets(caller, to string, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.access.IsAuthorized(caller, RoleAdmin) {
		return ErrUnauthorized
	}
	if err := c.value.TransferOut(to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	c.log.Warn("assets recovered", zap.String("caller", caller), zap.String("to", to), zap.Uint64("amount", amount))
	return nil
}

// ---------------------------------------------------------------------------
// Read-only queries. Returned records are copies.
// ---------------------------------------------------------------------------

// NodeByID returns a copy of the node record.
func (c *Core) NodeByID(id uint64) (*ledger.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.ledger.NodeByID(id)
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

// NodeByAddr returns a copy of the node registered for addr.
func (c *Core) NodeByAddr(addr string) (*ledger.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.ledger.NodeByAddr(addr)
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

// NodePath returns the node's root-to-node position sequence.
func (c *Core) NodePath(id uint64) ([]uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return e.Path.Positions(), nil
}

// SellerByID returns a copy of the seller record.
func (c *Core) SellerByID(id uint64) (*ledger.Seller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ledger.SellerByID(id)
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

// SellerByAddr returns a copy of the seller registered for addr.
func (c *Core) SellerByAddr(addr string) (*ledger.Seller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.ledger.SellerByAddr(addr)
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

// OrderByID returns a copy of the order record.
func (c *Core) OrderByID(id uint64) (*ledger.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, err := c.ledger.OrderByID(id)
	if err != nil {
		return nil, err
	}
	cp := *o
	return &cp, nil
}

// Params returns the current tunable parameters.
func (c *Core) Params() engine.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.params
}

// Mode returns the current mode state.
func (c *Core) Mode() engine.ModeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.mode
}

// DailyStats returns the statistics row for a day.
func (c *Core) DailyStats(day uint64) engine.PeriodStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.stats.Daily[day]; ok {
		return *st
	}
	return engine.PeriodStats{}
}

// WeeklyStats returns the statistics row for a week.
func (c *Core) WeeklyStats(week uint64) engine.PeriodStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.stats.Weekly[week]; ok {
		return *st
	}
	return engine.PeriodStats{}
}

// EmissionState returns a copy of the emission singleton.
func (c *Core) EmissionState() emission.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c.emission
	cp.WeekMint = make(map[uint64]uint64, len(c.emission.WeekMint))
	for k, v := range c.emission.WeekMint {
		cp.WeekMint[k] = v
	}
	return cp
}

// Genesis returns the deployment time.
func (c *Core) Genesis() int64 { return c.genesis }
