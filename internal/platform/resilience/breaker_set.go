package resilience

import (
	"sync"
	"time"
)

// BreakerSet hands out one CircuitBreaker per key, e.g. per upstream host,
// so a single failing feed host does not trip requests to the others.
type BreakerSet struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	breakers map[string]*CircuitBreaker
	now      func() time.Time
}

func NewBreakerSet(cfg CircuitBreakerConfig) *BreakerSet {
	return &BreakerSet{
		cfg:      cfg.Normalize(),
		breakers: make(map[string]*CircuitBreaker),
	}
}

func (s *BreakerSet) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

func (s *BreakerSet) For(key string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.breakers[key]; ok {
		return b
	}
	b := NewCircuitBreaker(s.cfg.FailureThreshold, s.cfg.OpenTimeout, s.cfg.HalfOpenMaxReq)
	if s.now != nil {
		b.now = s.now
	}
	s.breakers[key] = b
	return b
}

// States reports the current state of every known breaker.
func (s *BreakerSet) States() map[string]CircuitState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]CircuitState, len(s.breakers))
	for key, b := range s.breakers {
		out[key] = b.State()
	}
	return out
}
