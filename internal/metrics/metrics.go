// Package metrics exposes prometheus instruments for accrual and purchases
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "playtimeshop"

// Metrics groups the shop's instruments. A nil *Metrics records nothing.
type Metrics struct {
	PointsAccrued prometheus.Counter
	PointsSpent   prometheus.Counter
	Purchases     *prometheus.CounterVec
	GrantDuration *prometheus.HistogramVec
	OnlinePlayers prometheus.Gauge
}

// New registers the instruments with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PointsAccrued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_accrued_total",
			Help:      "Total points credited for playtime.",
		}),
		PointsSpent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_spent_total",
			Help:      "Total points debited by committed purchases.",
		}),
		Purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchase attempts by outcome.",
		}, []string{"outcome"}),
		GrantDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grant_duration_seconds",
			Help:      "Time spent waiting on the game host to grant a reward.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		OnlinePlayers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Players currently connected and accruing points.",
		}),
	}
}

// Accrued records points credited by accrual
func (m *Metrics) Accrued(points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.PointsAccrued.Add(float64(points))
}

// Purchase records the outcome of a purchase attempt and the points it spent
func (m *Metrics) Purchase(outcome string, spent int64) {
	if m == nil {
		return
	}
	m.Purchases.WithLabelValues(outcome).Inc()
	if spent > 0 {
		m.PointsSpent.Add(float64(spent))
	}
}

// Grant records how long a grant of the given offer kind took
func (m *Metrics) Grant(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GrantDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Online sets the number of connected players
func (m *Metrics) Online(count int) {
	if m == nil {
		return
	}
	m.OnlinePlayers.Set(float64(count))
}
