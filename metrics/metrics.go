package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tournament_standings"

// Standings instruments leaderboard computation.
type Standings struct {
	computations *prometheus.CounterVec
	duration     prometheus.Histogram
	skippedGames prometheus.Counter
	broadcasts   prometheus.Counter
	archives     *prometheus.CounterVec
}

// NewStandings registers the standings collectors on reg.
func NewStandings(reg prometheus.Registerer) *Standings {
	m := &Standings{
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Standings computations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "computation_duration_seconds",
			Help:      "Time spent fetching games and computing standings.",
			Buckets:   prometheus.DefBuckets,
		}),
		skippedGames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_games_total",
			Help:      "Malformed games left out of a standings computation.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_broadcasts_total",
			Help:      "Standings updates pushed to websocket rooms.",
		}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Final standings archive uploads by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.computations, m.duration, m.skippedGames, m.broadcasts, m.archives)
	}
	return m
}

// ObserveComputation records one computation. Safe on a nil receiver.
func (m *Standings) ObserveComputation(started time.Time, skipped int, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(started).Seconds())
	if err != nil {
		m.computations.WithLabelValues("error").Inc()
		return
	}
	m.computations.WithLabelValues("ok").Inc()
	if skipped > 0 {
		m.skippedGames.Add(float64(skipped))
	}
}

func (m *Standings) Broadcast() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}

func (m *Standings) Archive(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.archives.WithLabelValues("error").Inc()
		return
	}
	m.archives.WithLabelValues("ok").Inc()
}
