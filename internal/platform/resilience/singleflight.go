package resilience

import "sync"

// SingleFlight collapses concurrent calls sharing a key into one execution.
// Callers that joined an in-flight call receive its result with shared=true.
type SingleFlight[T any] struct {
	mu      sync.Mutex
	pending map[string]*flightCall[T]
}

type flightCall[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
}

func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.pending == nil {
		g.pending = make(map[string]*flightCall[T])
	}
	if c, ok := g.pending[key]; ok {
		c.waiters++
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall[T]{done: make(chan struct{})}
	g.pending[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.pending, key)
	shared = c.waiters > 0
	g.mu.Unlock()
	close(c.done)

	return c.val, c.err, shared
}

// InFlight reports how many keys are currently being loaded.
func (g *SingleFlight[T]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
