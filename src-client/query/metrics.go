package query

// Metrics receives one call per cache lifecycle event.
type Metrics interface {
	// Hit is called when Query is served from fresh cached data.
	Hit()
	// Miss is called when Query has to fetch.
	Miss()
	// Fetch is called every time a fetch function is started.
	Fetch()
	// Join is called when a caller joins a fetch that is already in flight.
	Join()
	// StaleDiscard is called when a superseded response is dropped.
	StaleDiscard()
	// Cancel is called when an in-flight fetch is cancelled.
	Cancel()
	// Invalidate is called once per entry marked stale.
	Invalidate()
	// Rollback is called when a mutation fails after its OnMutate hook ran.
	Rollback()
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Fetch()        {}
func (NoopMetrics) Join()         {}
func (NoopMetrics) StaleDiscard() {}
func (NoopMetrics) Cancel()       {}
func (NoopMetrics) Invalidate()   {}
func (NoopMetrics) Rollback()     {}
