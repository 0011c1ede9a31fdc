// Package metrics exposes the engine's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts order lines appended to the ledger.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "arandao",
		Name:      "orders_created_total",
	})

	// PairSteps counts settlement steps credited across all nodes.
	PairSteps = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "arandao",
		Name:      "pair_steps_total",
	})

	// FlushOuts counts pair flush-outs across all nodes.
	FlushOuts = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "arandao",
		Name:      "flush_outs_total",
	})

	// CommissionCredited totals commission credited by settlement, in
	// micro-units.
	CommissionCredited = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "arandao",
		Name:      "commission_credited_total",
	})

	// TokensMinted totals tokens minted by weekly emission.
	TokensMinted = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "arandao",
		Name:      "tokens_minted_total",
	})

	// UnclaimedCommission gauges the global unclaimed commission balance.
	UnclaimedCommission = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "arandao",
		Name:      "unclaimed_commission",
	})
)
