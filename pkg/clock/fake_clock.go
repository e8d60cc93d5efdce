package clock

import "time"

// FakeClock is a Clock whose notion of time only advances when Advance
// is called. It lets tests exercise the buffer cache's 30 second flush
// interval without sleeping on wall-clock time.
type FakeClock struct {
	now     time.Time
	tickers []*fakeTicker
}

// NewFakeClock creates a FakeClock starting at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the clock's current simulated time.
func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the simulated time forward by d, firing any ticker whose
// period has elapsed.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		t.maybeFire(c.now)
	}
}

// NewTimer is unused by the buffer cache's tick path but is provided to
// satisfy Clock; it fires immediately since FakeClock has no notion of
// background waiting.
func (c *FakeClock) NewTimer(d time.Duration) (Timer, <-chan time.Time) {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return &fakeTimer{}, ch
}

// NewTicker creates a ticker that fires on an Advance call once at least
// d has elapsed since it last fired (or since creation), at most once
// per Advance call.
func (c *FakeClock) NewTicker(d time.Duration) (Ticker, <-chan time.Time) {
	ch := make(chan time.Time, 1)
	t := &fakeTicker{period: d, last: c.now, ch: ch, active: true}
	c.tickers = append(c.tickers, t)
	return t, ch
}

type fakeTimer struct{}

func (*fakeTimer) Stop() bool { return true }

type fakeTicker struct {
	period time.Duration
	last   time.Time
	ch     chan time.Time
	active bool
}

func (t *fakeTicker) maybeFire(now time.Time) {
	if !t.active {
		return
	}
	if now.Sub(t.last) >= t.period {
		t.last = now
		select {
		case t.ch <- now:
		default:
		}
	}
}

func (t *fakeTicker) Stop() {
	t.active = false
}
