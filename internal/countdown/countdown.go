// Package countdown runs the hands-free shutter: a face held in the mask
// for the full countdown triggers one photo.
package countdown

import (
	"sync"
	"time"
)

// DefaultSeconds is the countdown length.
const DefaultSeconds = 4

// Option configures a Countdown.
type Option func(*Countdown)

// WithInterval sets the tick interval. Tests shorten it.
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) { c.interval = d }
}

// WithTick sets a callback receiving the seconds remaining after each tick.
func WithTick(fn func(remaining int)) Option {
	return func(c *Countdown) { c.onTick = fn }
}

// Countdown fires once per arming. Start while running or after firing is
// a no-op; Stop cancels a running countdown; Reset re-arms after a fire.
type Countdown struct {
	seconds  int
	interval time.Duration
	onTick   func(int)
	onFire   func()

	mu     sync.Mutex
	cancel chan struct{}
	fired  bool
}

// New creates a countdown that calls fire after seconds ticks.
func New(seconds int, fire func(), opts ...Option) *Countdown {
	if seconds <= 0 {
		seconds = DefaultSeconds
	}
	c := &Countdown{
		seconds:  seconds,
		interval: time.Second,
		onFire:   fire,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins counting down.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil || c.fired {
		return
	}
	cancel := make(chan struct{})
	c.cancel = cancel
	go c.run(cancel)
}

// Stop cancels a running countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

// Reset stops any running countdown and re-arms it.
func (c *Countdown) Reset() {
	c.Stop()
	c.mu.Lock()
	c.fired = false
	c.mu.Unlock()
}

// Running reports whether a countdown is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Fired reports whether the countdown completed since the last Reset.
func (c *Countdown) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

func (c *Countdown) run(cancel chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for elapsed := 1; ; elapsed++ {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.cancel != cancel {
			c.mu.Unlock()
			return
		}
		remaining := c.seconds - elapsed
		if remaining <= 0 {
			c.cancel = nil
			c.fired = true
		}
		c.mu.Unlock()

		if c.onTick != nil {
			c.onTick(remaining)
		}
		if remaining <= 0 {
			if c.onFire != nil {
				c.onFire()
			}
			return
		}
	}
}
