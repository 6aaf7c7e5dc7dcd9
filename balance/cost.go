/*package balance accumulates per-patch work estimates during deposition so
a larger run can rebalance patches between ranks or worker pools.

The package only measures. Moving work around in response to the measured
costs is left to the caller.
*/
package balance

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// Strategy selects how deposition work is measured.
type Strategy int

const (
	// Disabled records nothing.
	Disabled Strategy = iota
	// Heuristic charges a weighted count of cells and particles without
	// touching a clock.
	Heuristic
	// WallClock charges the elapsed time of the whole pass.
	WallClock
	// WorkerClock charges the busy time summed over workers, so waiting on
	// a slow tile shows up as cost instead of vanishing into overlap.
	WorkerClock
)

func (s Strategy) String() string {
	switch s {
	case Disabled:
		return "Disabled"
	case Heuristic:
		return "Heuristic"
	case WallClock:
		return "WallClock"
	case WorkerClock:
		return "WorkerClock"
	}
	return "Unknown"
}

// Valid returns true if s names one of the supported strategies.
func (s Strategy) Valid() bool { return s >= Disabled && s <= WorkerClock }

// ParseStrategy converts a config-file strategy name to a Strategy. Names
// are matched without case.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "disabled":
		return Disabled, nil
	case "heuristic":
		return Heuristic, nil
	case "wallclock":
		return WallClock, nil
	case "workerclock":
		return WorkerClock, nil
	}
	return Disabled, fmt.Errorf("unknown balance strategy %q", name)
}

// Weights of the Heuristic strategy. Cells charge for the memory the pass
// sweeps, particles for the scatter work.
const (
	HeuristicCellWeight     = 0.1
	HeuristicParticleWeight = 0.9
)

// HeuristicCost returns the Heuristic work estimate for one pass.
func HeuristicCost(cells, particles int) float64 {
	return HeuristicCellWeight*float64(cells) +
		HeuristicParticleWeight*float64(particles)
}

// Cost is one patch's running work total. The zero value is ready to use,
// and Add may be called from any number of goroutines.
type Cost struct {
	bits uint64
}

// Add atomically adds v to the total.
func (c *Cost) Add(v float64) {
	for {
		old := atomic.LoadUint64(&c.bits)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&c.bits, old, next) {
			return
		}
	}
}

// Value returns the current total.
func (c *Cost) Value() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.bits))
}

// Reset zeroes the total, as after a rebalance step.
func (c *Cost) Reset() {
	atomic.StoreUint64(&c.bits, 0)
}
