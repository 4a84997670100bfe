package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_rounds_total",
		Help: "Settled rounds by game and outcome",
	}, []string{"game", "outcome"})

	wageredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_wagered_total",
		Help: "Amount staked on settled rounds",
	}, []string{"game"})

	paidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_paid_total",
		Help: "Amount returned to players on settled rounds, stakes included",
	}, []string{"game"})

	ledgerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casino_ledger_op_duration_ms",
		Help:    "Ledger operation latency in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"op", "result"})
)

// Outcome labels for RecordRound.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomePush = "push"
)

// OutcomeFor classifies a settled round by its net result.
func OutcomeFor(net int64) string {
	switch {
	case net > 0:
		return OutcomeWin
	case net < 0:
		return OutcomeLoss
	default:
		return OutcomePush
	}
}

func RecordRound(game string, wagered, paid, net int64) {
	roundsTotal.WithLabelValues(game, OutcomeFor(net)).Inc()
	wageredTotal.WithLabelValues(game).Add(float64(wagered))
	paidTotal.WithLabelValues(game).Add(float64(paid))
}

// RecordLedger records one ledger call; result should be "success" or "fail".
func RecordLedger(op, result string, started time.Time) {
	if result != "success" {
		result = "fail"
	}
	ledgerDuration.WithLabelValues(op, result).Observe(float64(time.Since(started).Milliseconds()))
}
