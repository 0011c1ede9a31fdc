package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fash-ns/arandao-go/ledger"
	"github.com/fash-ns/arandao-go/tree"
)

// Engine runs the step-pairing settlement. It never mutates shared state
// directly: Settle works on copies and returns a SettleResult that the
// caller commits after every collaborator call has succeeded.
type Engine struct {
	registry *tree.Registry
	params   *Params
	mode     *ModeState
	stats    *StatsTable
	log      *zap.Logger
}

// New creates an engine over the shared registry, parameters, mode state
// and statistics tables.
func New(registry *tree.Registry, params *Params, mode *ModeState, stats *StatsTable, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		params:   params,
		mode:     mode,
		stats:    stats,
		log:      log,
	}
}

// SettleResult carries the mutated copies produced by one settlement call
// plus the deltas the orchestrator needs for global totals and metrics.
type SettleResult struct {
	Node  *ledger.Node
	Stats *StatsTable
	Mode  *ModeState

	Steps           uint64
	FlushOuts       uint64
	CommissionDelta uint64
	BonusEligible   bool
	ModeSwitched    bool
}

// Settle consumes a batch of orders for one node: it attributes each
// order's business value to the node's accumulators via the ancestor test,
// closes every settlement period the batch crosses, and advances the
// node's last-processed pointer. Identifiers must be strictly increasing
// and above the node's pointer, and no order may belong to the still-open
// current period. The supplied node is not modified; the mutated copy is
// returned in the result.
func (e *Engine) Settle(n *ledger.Node, orders []*ledger.Order, now int64) (*SettleResult, error) {
	if len(orders) == 0 {
		return nil, ErrEmptyBatch
	}

	last := n.LastOrderID
	for i, o := range orders {
		if o == nil {
			return nil, ErrOrderMismatch
		}
		if o.ID <= n.LastOrderID {
			return nil, fmt.Errorf("%w: order %d, pointer %d", ErrOrderReplayed, o.ID, n.LastOrderID)
		}
		if i > 0 && o.ID <= last {
			return nil, fmt.Errorf("%w: order %d after %d", ErrOrderNotMonotonic, o.ID, last)
		}
		last = o.ID
	}
	for _, o := range orders {
		if p := e.mode.PeriodOf(o.CreatedAt); p.End() > now {
			return nil, fmt.Errorf("%w: order %d", ErrOpenPeriod, o.ID)
		}
	}

	res := &SettleResult{
		Node:  n.Clone(),
		Stats: e.stats.Clone(),
		Mode:  e.mode.Clone(),
	}
	work := res.Node

	var cur Period
	curSet := false
	if work.PairPeriodStart != 0 {
		cur = res.Mode.PeriodOf(work.PairPeriodStart)
		curSet = true
	}

	for _, o := range orders {
		p := res.Mode.PeriodOf(o.CreatedAt)
		if curSet && cur.Before(p) {
			e.closePeriod(work, cur, res, now)
		}
		if !curSet || cur.Before(p) {
			cur = p
			curSet = true
		}

		ok, pos, err := e.registry.IsAncestor(work.ID, o.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("engine: attribute order %d: %w", o.ID, err)
		}
		if ok && pos != tree.SelfPosition {
			work.ChildrenBV[pos] += o.BusinessValue
			work.ChildrenAggBV[pos] += o.BusinessValue
			work.NormalBV[pos/2] += o.BusinessValue
		}
	}

	e.closePeriod(work, cur, res, now)
	work.LastOrderID = orders[len(orders)-1].ID

	if work.TotalSteps >= BonusStepThreshold && work.BonusMonth == 0 {
		res.BonusEligible = true
	}

	e.log.Debug("settled order batch",
		zap.Uint64("node", work.ID),
		zap.Int("orders", len(orders)),
		zap.Uint64("steps", res.Steps),
		zap.Uint64("flush_outs", res.FlushOuts),
	)
	return res, nil
}

// closePeriod runs the pairing routine for one settlement period over the
// three independent pairs: (children 0,1), (children 2,3), (normal 0,1).
func (e *Engine) closePeriod(n *ledger.Node, p Period, res *SettleResult, now int64) {
	if n.PairPeriodStart != p.Start() {
		n.PairSteps = [ledger.PairCount]uint32{}
		n.PairPeriodStart = p.Start()
	}

	st := res.Stats.For(p)
	threshold := e.params.PairThreshold
	perStep := e.params.CommissionPerStep
	maxSteps := e.params.MaxStepsPerPeriod

	pairs := [ledger.PairCount][2]*uint64{
		{&n.ChildrenBV[0], &n.ChildrenBV[1]},
		{&n.ChildrenBV[2], &n.ChildrenBV[3]},
		{&n.NormalBV[0], &n.NormalBV[1]},
	}

	var periodSteps uint64
	for i, pair := range pairs {
		steps := n.PairSteps[i]
		if steps >= maxSteps {
			continue
		}

		a, b := pair[0], pair[1]
		for *a >= threshold && *b >= threshold && steps < maxSteps {
			*a -= threshold
			*b -= threshold
			n.Commission += perStep
			res.CommissionDelta += perStep
			n.TotalSteps++
			steps++
			periodSteps++
		}
		if steps >= maxSteps {
			// Cap reached: the pair is flushed out and any excess forfeited.
			*a = 0
			*b = 0
			st.FlushOuts++
			res.FlushOuts++
		}
		n.PairSteps[i] = steps
	}

	st.Steps += periodSteps
	week := WeekOf(p.Start())
	if !p.Weekly {
		res.Stats.WeeklyFor(week).Steps += periodSteps
	}
	if periodSteps > 0 {
		n.WeekSteps[week] += periodSteps
	}
	res.Steps += periodSteps

	if !p.Weekly && res.Mode.WeeklyAt == 0 && st.FlushOuts >= FlushOutSwitchThreshold {
		if err := res.Mode.Switch(now); err == nil {
			res.ModeSwitched = true
			e.log.Info("daily flush-out threshold crossed, switching to weekly settlement",
				zap.Uint64("day", p.Num),
				zap.Uint64("flush_outs", st.FlushOuts),
				zap.Int64("weekly_at", res.Mode.WeeklyAt),
			)
		}
	}
}

// Commit applies a settlement result to the shared mode and statistics
// state. The node copy is committed by the caller, which owns the ledger.
func (e *Engine) Commit(res *SettleResult) {
	*e.stats = *res.Stats
	*e.mode = *res.Mode
}
