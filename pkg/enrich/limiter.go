package enrich

// limiter caps how many lookups are in flight at once.
type limiter struct {
	sem chan struct{}
}

func newLimiter(n int) *limiter {
	if n < 1 {
		n = 1
	}
	return &limiter{sem: make(chan struct{}, n)}
}

// acquire waits for a free slot. It reports false if done closes first.
func (l *limiter) acquire(done <-chan struct{}) bool {
	select {
	case l.sem <- struct{}{}:
		return true
	case <-done:
		return false
	}
}

func (l *limiter) release() { <-l.sem }
