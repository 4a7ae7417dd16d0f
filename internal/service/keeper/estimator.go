package keeper

// SizeEstimator decides how many free bytes an indexed directory must keep
// for the next incoming plot. A configured size always wins; otherwise the
// largest new plot observed so far is used.
type SizeEstimator struct {
	configured int64
	observed   int64
}

// NewSizeEstimator creates a SizeEstimator. configured <= 0 means estimate.
func NewSizeEstimator(configured int64) *SizeEstimator {
	if configured < 0 {
		configured = 0
	}
	return &SizeEstimator{configured: configured}
}

// Observe records the size of a new plot
func (e *SizeEstimator) Observe(size int64) {
	if size > e.observed {
		e.observed = size
	}
}

// Required returns the free bytes needed for one new plot, or 0 when unknown
func (e *SizeEstimator) Required() int64 {
	if e.configured > 0 {
		return e.configured
	}
	return e.observed
}

// Configured reports whether the size came from configuration
func (e *SizeEstimator) Configured() bool {
	return e.configured > 0
}
