// Package chain derives block heights from wall-clock time. The ledger core
// only understands heights; this is the one place the two are reconciled.
package chain

import (
	"fmt"
	"time"
)

// Clock maps wall-clock time onto a monotonically increasing block height:
// height 0 starts at genesis and advances every interval.
type Clock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

// NewClock builds a clock anchored at genesis with the given block interval.
func NewClock(genesis time.Time, interval time.Duration) (*Clock, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("chain: block interval must be positive, got %s", interval)
	}
	return &Clock{genesis: genesis, interval: interval, now: time.Now}, nil
}

// Height returns the current block height. Times before genesis clamp to 0.
func (c *Clock) Height() uint64 {
	return c.HeightAt(c.now())
}

// HeightAt returns the block height at t.
func (c *Clock) HeightAt(t time.Time) uint64 {
	elapsed := t.Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// TimeAt returns the wall-clock start of the given block height.
func (c *Clock) TimeAt(height uint64) time.Time {
	return c.genesis.Add(time.Duration(height) * c.interval)
}

// Genesis returns the clock's anchor time.
func (c *Clock) Genesis() time.Time { return c.genesis }

// Interval returns the block interval.
func (c *Clock) Interval() time.Duration { return c.interval }
