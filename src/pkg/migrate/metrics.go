package migrate

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus counters a Migrator reports into. It is
// optional: a Migrator without metrics (the default) skips all reporting.
type Metrics struct {
	Resolutions  *prometheus.CounterVec
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	StepsApplied *prometheus.CounterVec
	Migrations   *prometheus.CounterVec
}

// NewMetrics creates the counter set and registers it with reg. A nil reg
// leaves the counters unregistered, which the tests use to read them
// directly.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vermigrate",
			Name:      "chain_resolutions_total",
			Help:      "Number of chain resolutions performed, i.e. cache misses that reached the resolver.",
		}, []string{"direction"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vermigrate",
			Name:      "chain_cache_hits_total",
			Help:      "Number of chain lookups served from the cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vermigrate",
			Name:      "chain_cache_misses_total",
			Help:      "Number of chain lookups that missed the cache.",
		}),
		StepsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vermigrate",
			Name:      "steps_applied_total",
			Help:      "Number of migration steps executed.",
		}, []string{"direction"}),
		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vermigrate",
			Name:      "migrations_total",
			Help:      "Number of migration calls by direction and outcome.",
		}, []string{"direction", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.Resolutions, m.CacheHits, m.CacheMisses, m.StepsApplied, m.Migrations)
	}
	return m
}

// The increment helpers are nil-safe so the Migrator can call them
// unconditionally.

func (m *Metrics) resolution(d Direction) {
	if m != nil {
		m.Resolutions.WithLabelValues(string(d)).Inc()
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) stepApplied(d Direction) {
	if m != nil {
		m.StepsApplied.WithLabelValues(string(d)).Inc()
	}
}

func (m *Metrics) migration(d Direction, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.Migrations.WithLabelValues(string(d), status).Inc()
}
