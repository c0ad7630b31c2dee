package service

import (
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the clock depends on
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates the one-second ticker driving a clock
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Clock counts elapsed whole seconds while running and fires a single
// timeout once elapsed reaches the allotted time.
type Clock struct {
	mu       sync.Mutex
	running  bool
	expired  bool
	elapsed  int
	allotted int
	stop     chan struct{}

	newTicker TickerFactory
	onTick    func(elapsed int)
	onTimeout func(elapsed int)
}

// NewClock creates a stopped clock. allotted <= 0 disables the timeout.
// Callbacks run on the clock goroutine without any clock lock held.
func NewClock(elapsed, allotted int, newTicker TickerFactory, onTick, onTimeout func(elapsed int)) *Clock {
	if newTicker == nil {
		newTicker = newRealTicker
	}
	return &Clock{
		elapsed:   elapsed,
		allotted:  allotted,
		newTicker: newTicker,
		onTick:    onTick,
		onTimeout: onTimeout,
	}
}

// Start begins ticking. It is a no-op when already running or once the
// timeout has fired.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.expired {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	go c.loop(c.newTicker(time.Second), c.stop)
}

// Stop halts ticking. It is a no-op when already stopped and never waits
// for the clock goroutine.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
}

func (c *Clock) halt() {
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}

func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Clock) Allotted() int {
	return c.allotted
}

// Expired reports whether the timeout has fired. It never resets.
func (c *Clock) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Clock) loop(t Ticker, stop chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.tick(stop)
		}
	}
}

// tick advances one second for the run identified by stop. Ticks from a
// run that has since been stopped are ignored.
func (c *Clock) tick(stop chan struct{}) {
	c.mu.Lock()
	if !c.running || c.stop != stop {
		c.mu.Unlock()
		return
	}
	c.elapsed++
	elapsed := c.elapsed
	expired := c.allotted > 0 && elapsed >= c.allotted
	if expired {
		c.expired = true
		c.halt()
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(elapsed)
	}
	if expired && c.onTimeout != nil {
		c.onTimeout(elapsed)
	}
}
