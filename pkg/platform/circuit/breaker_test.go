package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for cooldown tests.
type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 10, 31, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func admit(t *testing.T, b *Breaker) Ticket {
	t.Helper()
	ticket, ok := b.Allow()
	require.True(t, ok, "call should be admitted")
	return ticket
}

func fail(t *testing.T, b *Breaker) (bool, Change) {
	t.Helper()
	return b.RecordFailure(admit(t, b))
}

func succeed(t *testing.T, b *Breaker) (bool, Change) {
	t.Helper()
	return b.RecordSuccess(admit(t, b))
}

func TestBreaker_InitialState(t *testing.T) {
	b := New("pokeapi")
	assert.False(t, b.IsOpen())
	ticket, ok := b.Allow()
	assert.True(t, ok)
	assert.False(t, ticket.Probe())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "pokeapi", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	// First two failures don't open
	useFallback, change := fail(t, b)
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = fail(t, b)
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	// Third failure opens the circuit
	useFallback, change = fail(t, b)
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(2), WithCooldown(0))

	// Open the circuit
	fail(t, b)
	assert.True(t, b.IsOpen())

	// First successful probe doesn't close
	usePrimary, change := succeed(t, b)
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen())

	// Second closes
	usePrimary, change = succeed(t, b)
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	fail(t, b)
	fail(t, b)
	assert.False(t, b.IsOpen())

	succeed(t, b)

	// Two more failures don't open (count was reset)
	fail(t, b)
	fail(t, b)
	assert.False(t, b.IsOpen())

	fail(t, b)
	assert.True(t, b.IsOpen())
}

func TestBreaker_FailedProbeResetsSuccessCount(t *testing.T) {
	b := New("test", WithFailureThreshold(1), WithSuccessThreshold(3), WithCooldown(0))

	fail(t, b)
	assert.True(t, b.IsOpen())

	succeed(t, b)
	succeed(t, b)

	// Failed probe resets the success count (stays open)
	useFallback, change := fail(t, b)
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")
	assert.True(t, b.IsOpen())

	// Need 3 successes again to close
	succeed(t, b)
	succeed(t, b)
	assert.True(t, b.IsOpen())
	succeed(t, b)
	assert.False(t, b.IsOpen())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("test", WithFailureThreshold(1))

	fail(t, b)
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OpenCircuitRejectsUntilCooldown(t *testing.T) {
	clock := newFakeClock()
	b := New("pokeapi", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock.Now))

	fail(t, b)
	_, ok := b.Allow()
	assert.False(t, ok)

	clock.Advance(9 * time.Second)
	_, ok = b.Allow()
	assert.False(t, ok)

	clock.Advance(time.Second)
	probe, ok := b.Allow()
	assert.True(t, ok, "probe admitted after cooldown")
	assert.True(t, probe.Probe())
	_, ok = b.Allow()
	assert.False(t, ok, "only one probe in flight")
}

func TestBreaker_FailedProbeRestartsCooldown(t *testing.T) {
	clock := newFakeClock()
	b := New("pokeapi", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock.Now))

	fail(t, b)
	clock.Advance(10 * time.Second)
	fail(t, b)

	_, ok := b.Allow()
	assert.False(t, ok)

	clock.Advance(10 * time.Second)
	_, ok = b.Allow()
	assert.True(t, ok)
}

func TestBreaker_SuccessfulProbesCloseCircuit(t *testing.T) {
	clock := newFakeClock()
	b := New("pokeapi",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(10*time.Second),
		WithClock(clock.Now),
	)

	fail(t, b)
	clock.Advance(10 * time.Second)

	succeed(t, b)
	assert.True(t, b.IsOpen())

	// next probe does not wait for another cooldown
	_, change := succeed(t, b)
	assert.True(t, change.Closed)
	assert.Equal(t, "closed", b.State().String())
}

func TestBreaker_ReleaseFreesProbeWithoutCounting(t *testing.T) {
	clock := newFakeClock()
	b := New("pokeapi",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithCooldown(10*time.Second),
		WithClock(clock.Now),
	)

	fail(t, b)
	clock.Advance(10 * time.Second)

	b.Release(admit(t, b))
	assert.True(t, b.IsOpen())

	_, change := succeed(t, b)
	assert.True(t, change.Closed, "slot freed for the next probe")
}

func TestBreaker_ReleaseInClosedStateIsNeutral(t *testing.T) {
	b := New("test", WithFailureThreshold(2))

	fail(t, b)
	for range 5 {
		b.Release(admit(t, b))
	}
	assert.False(t, b.IsOpen())

	fail(t, b)
	assert.True(t, b.IsOpen(), "released calls do not reset the failure run")
}

func TestBreaker_StaleOutcomesAreIgnored(t *testing.T) {
	clock := newFakeClock()
	b := New("pokeapi",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithCooldown(10*time.Second),
		WithClock(clock.Now),
	)

	// Admitted while closed, finishes after the circuit opened.
	slow := admit(t, b)
	fail(t, b)
	require.True(t, b.IsOpen())

	clock.Advance(10 * time.Second)
	probe := admit(t, b)

	usePrimary, change := b.RecordSuccess(slow)
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.True(t, b.IsOpen(), "stale success does not close the circuit")

	_, ok := b.Allow()
	assert.False(t, ok, "stale success does not free the probe slot")

	_, change = b.RecordSuccess(probe)
	assert.True(t, change.Closed)

	// A failure admitted before the circuit closed does not count either.
	useFallback, change := b.RecordFailure(probe)
	assert.False(t, useFallback)
	assert.False(t, change.Opened)
	assert.False(t, b.IsOpen())
}
