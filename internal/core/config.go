package core

import (
	"math"
	"time"
)

// RuntimeConfig contains process-level simulation settings shared by every session.
type RuntimeConfig struct {
	TickRate int     // Simulation ticks per second (default 20)
	WorldW   float64 // World width in world units
	WorldH   float64 // World height in world units
	Seed     int64   // RNG seed, 0 means derive from time
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		TickRate: 20,
		WorldW:   1600,
		WorldH:   900,
		Seed:     0,
	}
}

// TickDuration returns the wall-clock length of one tick.
func (c RuntimeConfig) TickDuration() time.Duration {
	if c.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(c.TickRate)
}

// DT returns the tick length in seconds.
func (c RuntimeConfig) DT() float64 {
	return c.TickDuration().Seconds()
}

// Bounds returns the world rectangle.
func (c RuntimeConfig) Bounds() Bounds {
	return NewBounds(c.WorldW, c.WorldH)
}

// TicksFor converts a duration in seconds to a whole number of ticks (rounded up).
func (c RuntimeConfig) TicksFor(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	rate := c.TickRate
	if rate <= 0 {
		rate = 20
	}
	// Tolerate float noise such as 0.3*20 = 6.000000000000001.
	return uint64(math.Ceil(seconds*float64(rate) - 1e-9))
}
