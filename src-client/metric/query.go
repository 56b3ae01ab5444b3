package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueryMetrics counts query cache events in Prometheus.
type QueryMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	fetches       prometheus.Counter
	joins         prometheus.Counter
	staleDiscards prometheus.Counter
	cancels       prometheus.Counter
	invalidations prometheus.Counter
	rollbacks     prometheus.Counter
}

func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eventdesk",
			Subsystem: "query",
			Name:      name,
			Help:      help,
		})
	}
	return &QueryMetrics{
		hits:          counter("cache_hits_total", "Queries served from fresh cached data"),
		misses:        counter("cache_misses_total", "Queries that had to fetch"),
		fetches:       counter("fetches_total", "Fetch functions started"),
		joins:         counter("fetch_joins_total", "Callers that joined a fetch already in flight"),
		staleDiscards: counter("stale_discards_total", "Responses dropped because a newer request superseded them"),
		cancels:       counter("cancels_total", "In-flight fetches cancelled"),
		invalidations: counter("invalidations_total", "Entries marked stale"),
		rollbacks:     counter("mutation_rollbacks_total", "Mutations that failed after writing optimistic data"),
	}
}

func (m *QueryMetrics) Hit()          { m.hits.Inc() }
func (m *QueryMetrics) Miss()         { m.misses.Inc() }
func (m *QueryMetrics) Fetch()        { m.fetches.Inc() }
func (m *QueryMetrics) Join()         { m.joins.Inc() }
func (m *QueryMetrics) StaleDiscard() { m.staleDiscards.Inc() }
func (m *QueryMetrics) Cancel()       { m.cancels.Inc() }
func (m *QueryMetrics) Invalidate()   { m.invalidations.Inc() }
func (m *QueryMetrics) Rollback()     { m.rollbacks.Inc() }
