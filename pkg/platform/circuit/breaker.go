// Package circuit provides a small consecutive-failure circuit breaker.
//
// The breaker opens after a run of failures and closes again after a run of
// successes. Every call is admitted through Allow, which returns a Ticket the
// caller hands back with the outcome. While open, Allow admits a single probe
// once the cooldown has elapsed, and only that probe's outcome moves the
// breaker. Outcomes of calls admitted before the last state change are ignored.
package circuit

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Change reports a state transition caused by a recorded outcome.
type Change struct {
	Opened bool
	Closed bool
}

// Ticket identifies an admitted call.
type Ticket struct {
	epoch uint64
	probe bool
}

// Probe reports whether the ticket was issued for a probe of an open circuit.
func (t Ticket) Probe() bool { return t.probe }

// Breaker tracks consecutive outcomes for one dependency. Safe for concurrent use.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
	// epoch advances on every state change.
	epoch uint64
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close an open circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long an open circuit rejects calls before admitting a probe.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d >= 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a closed breaker. Defaults: 5 failures to open, 2 successes to
// close, 30s cooldown.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 2,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether the circuit is open.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call may proceed. Closed circuits always allow.
// Open circuits allow one probe at a time once the cooldown has elapsed.
// The returned Ticket must be passed to exactly one of RecordSuccess,
// RecordFailure or Release.
func (b *Breaker) Allow() (Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return Ticket{epoch: b.epoch}, true
	}
	if b.probing || b.now().Sub(b.openedAt) < b.cooldown {
		return Ticket{}, false
	}
	b.probing = true
	return Ticket{epoch: b.epoch, probe: true}, true
}

// RecordFailure records a failed call. useFallback is true while the circuit
// is open after this call.
func (b *Breaker) RecordFailure(t Ticket) (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.current(t) {
		return b.state == StateOpen, Change{}
	}
	if b.state == StateOpen {
		b.probing = false
		b.successes = 0
		b.openedAt = b.now()
		return true, Change{}
	}
	b.failures++
	if b.failures >= b.failureThreshold {
		b.transition(StateOpen)
		b.openedAt = b.now()
		return true, Change{Opened: true}
	}
	return false, Change{}
}

// RecordSuccess records a successful call. usePrimary is true while the
// circuit is closed after this call.
func (b *Breaker) RecordSuccess(t Ticket) (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.current(t) {
		return b.state == StateClosed, Change{}
	}
	if b.state == StateClosed {
		b.failures = 0
		return true, Change{}
	}
	b.probing = false
	b.successes++
	if b.successes >= b.successThreshold {
		b.transition(StateClosed)
		return true, Change{Closed: true}
	}
	// Keep the circuit probing without waiting for another cooldown.
	b.openedAt = b.now().Add(-b.cooldown)
	return false, Change{}
}

// Release returns a ticket whose call ended without saying anything about
// the dependency, such as a call abandoned by its caller. A released probe
// frees the probe slot without moving any counter.
func (b *Breaker) Release(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current(t) && t.probe {
		b.probing = false
	}
}

// Reset closes the circuit and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.openedAt = time.Time{}
}

// current reports whether t may move the breaker: it was issued in the
// current state and, while open, it is the admitted probe.
func (b *Breaker) current(t Ticket) bool {
	if t.epoch != b.epoch {
		return false
	}
	return b.state == StateClosed || (t.probe && b.probing)
}

func (b *Breaker) transition(to State) {
	b.state = to
	b.epoch++
	b.failures = 0
	b.successes = 0
	b.probing = false
}
