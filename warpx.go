/*package warpx couples macro-particles to field grids: it scatters charge
and current onto patches, corrects the result at conducting walls, and
meters the work so callers can rebalance patches.

The Depositor in this package drives the deposit subpackage over a worker
pool. The direct mode splits the batch across workers writing to the
destination through atomic adds. The tiled mode bins particles into tiles
first and lets worker groups scatter into private tile buffers before
merging, trading a binning sweep for less contention and smaller working
sets.
*/
package warpx

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmsclark2/WarpX/balance"
	"github.com/tmsclark2/WarpX/deposit"
	"github.com/tmsclark2/WarpX/field"
	"github.com/tmsclark2/WarpX/geom"
)

// DefaultTileBudget is the largest tile buffer EnableTiling accepts before
// complaining, in bytes. Tiles that blow this budget stop fitting in cache
// and lose the point of tiling.
const DefaultTileBudget = 48 << 10

type Depositor struct {
	set deposit.Settings

	// tiling
	tiled bool
	tile  [3]int
	group int

	// cost accounting
	cost     *balance.Cost
	strategy balance.Strategy
	busy     balance.Cost

	// io related things
	log bool
	ms  runtime.MemStats

	// workspaces
	workers    int
	workspaces []workspace
}

// workspace is one tile-sized scratch buffer. A worker group shares it for
// the scatter, merges it into the destination, and hands it to the next
// tile through the free list.
type workspace struct {
	buf   []float64
	grid  geom.Grid
	nodal [3]bool
	left  int32
}

// prepare points the workspace at a tile and zeroes exactly the samples
// the tile needs. The guard margin goes on every resolved axis, even when
// truncation leaves the tile a single cell wide there. The backing array is
// reused across tiles.
func (ws *workspace) prepare(tb geom.CellBounds, guard, dims int, nodal [3]bool, comps int) {
	cb := tb
	for d := 0; d < dims; d++ {
		cb.Origin[d] -= guard
		cb.Width[d] += 2 * guard
		if nodal[d] {
			cb.Width[d]++
		}
	}
	ws.grid.Init(cb.Origin, cb.Width)
	ws.nodal = nodal

	ws.buf = ws.buf[0 : ws.grid.Volume*comps]
	for i := range ws.buf {
		ws.buf[i] = 0.0
	}
}

// NewDepositor returns a Depositor that scatters batches with the given
// settings. Workers of zero or below means one worker per CPU.
func NewDepositor(set deposit.Settings, workers int) (*Depositor, error) {
	if err := set.Check(); err != nil {
		return nil, err
	}

	dep := new(Depositor)
	dep.set = set
	dep.workers = workers
	if dep.workers <= 0 {
		dep.workers = runtime.NumCPU()
	}
	dep.workspaces = make([]workspace, dep.workers)

	return dep, nil
}

// Log turns progress and memory logging on or off.
func (dep *Depositor) Log(flag bool) { dep.log = flag }

// Workers returns the size of the worker pool.
func (dep *Depositor) Workers() int { return dep.workers }

// Settings returns a copy of the deposition settings.
func (dep *Depositor) Settings() deposit.Settings { return dep.set }

// SetCost points the Depositor at a patch cost accumulator. Every Deposit
// call charges it under the given strategy.
func (dep *Depositor) SetCost(c *balance.Cost, s balance.Strategy) {
	if !s.Valid() {
		log.Fatalf("%d is not a balance strategy.", int(s))
	}
	dep.cost, dep.strategy = c, s
}

// tileGuard is the guard margin of tile buffers. One cell past the shape
// order absorbs home cells that land a ulp across a tile edge.
func (dep *Depositor) tileGuard() int { return int(dep.set.Order) + 1 }

// EnableTiling switches Deposit to binned tile buffers. Tile is the tile
// edge in cells per grid axis, group the number of workers that share one
// tile, and budget the buffer size cap in bytes, with 0 meaning
// DefaultTileBudget. The workspace buffers are allocated here, once.
func (dep *Depositor) EnableTiling(tile [3]int, group, budget int) error {
	dims := dep.set.Geom.Dims()
	for d := 0; d < dims; d++ {
		if tile[d] < 1 {
			return fmt.Errorf("tile size %d on axis %d is not positive",
				tile[d], d)
		}
	}
	for d := dims; d < 3; d++ {
		tile[d] = 1
	}
	if group < 1 || group > dep.workers {
		return fmt.Errorf("worker group of %d does not fit a pool of %d",
			group, dep.workers)
	}
	if budget <= 0 {
		budget = DefaultTileBudget
	}

	samples := dep.set.Comps()
	for d := 0; d < 3; d++ {
		w := tile[d]
		if d < dims {
			w += 2*dep.tileGuard() + 1
		}
		samples *= w
	}
	if bytes := 8 * samples; bytes > budget {
		return fmt.Errorf(
			"tile size too big for buffered deposition: %v needs %d bytes, budget is %d",
			tile, bytes, budget,
		)
	}

	dep.tile = tile
	dep.group = group
	dep.tiled = true

	for i := range dep.workspaces {
		dep.workspaces[i].buf = make([]float64, samples)
	}
	if dep.log {
		log.Printf(
			"Workspace buffer size: %d. Number of workers: %d",
			samples, dep.workers,
		)
	}

	return nil
}

// Deposit scatters the batch onto f with every worker in the pool. The
// destination keeps whatever it already held, deposits accumulate.
func (dep *Depositor) Deposit(f *field.Field, p *deposit.Batch) {
	if f.Comps != dep.set.Comps() {
		log.Fatalf("Destination carries %d component planes, settings need %d.",
			f.Comps, dep.set.Comps())
	}
	if f.Guard < int(dep.set.Order) {
		log.Fatalf("Destination guard of %d cells cannot hold an order %d stencil.",
			f.Guard, int(dep.set.Order))
	}

	start := time.Now()
	if dep.tiled {
		dep.depositTiled(f, p)
	} else {
		dep.depositDirect(f, p)
	}
	dep.charge(f, p, time.Since(start))

	if dep.log {
		runtime.ReadMemStats(&dep.ms)
		log.Printf(
			"Alloc: %5d MB, Sys: %5d MB",
			dep.ms.Alloc>>20, dep.ms.Sys>>20,
		)
	}
}

func (dep *Depositor) depositDirect(f *field.Field, p *deposit.Batch) {
	out := make(chan int, dep.workers)
	k := deposit.Direct(&dep.set, &f.Grid, f.Nodal)

	for id := 0; id < dep.workers-1; id++ {
		go dep.chanDeposit(id, k, f, p, out)
	}
	dep.chanDeposit(dep.workers-1, k, f, p, out)

	for i := 0; i < dep.workers; i++ {
		<-out
	}
}

func (dep *Depositor) chanDeposit(
	id int, k deposit.Kernel, f *field.Field, p *deposit.Batch, out chan<- int,
) {
	start := time.Now()
	k.Deposit(f.Data, p, id, p.Len(), dep.workers)
	if dep.strategy == balance.WorkerClock {
		dep.busy.Add(time.Since(start).Seconds())
	}
	out <- id
}

func (dep *Depositor) depositTiled(f *field.Field, p *deposit.Batch) {
	bins := deposit.BinParticles(&dep.set, p, f.Valid, dep.tile)

	// Tiles in flight at once. Each claims one workspace and one group of
	// workers, so the pool stays fully subscribed.
	concurrent := dep.workers / dep.group
	if concurrent < 1 {
		concurrent = 1
	}

	free := make(chan int, concurrent)
	for id := 0; id < concurrent; id++ {
		free <- id
	}

	wg := sync.WaitGroup{}
	for t := 0; t < bins.NumTiles(); t++ {
		if bins.Count(t) == 0 {
			continue
		}

		id := <-free
		ws := &dep.workspaces[id]
		ws.prepare(bins.TileBounds(t), dep.tileGuard(), dep.set.Geom.Dims(),
			f.Nodal, f.Comps)
		ws.left = int32(dep.group)

		barrier := &sync.WaitGroup{}
		barrier.Add(dep.group)
		wg.Add(dep.group)
		for gi := 0; gi < dep.group; gi++ {
			go dep.chanDepositTile(gi, id, t, bins, f, p, barrier, &wg, free)
		}
	}
	wg.Wait()
}

func (dep *Depositor) chanDepositTile(
	gi, id, t int, bins *deposit.Binning, f *field.Field, p *deposit.Batch,
	barrier, wg *sync.WaitGroup, free chan<- int,
) {
	start := time.Now()
	ws := &dep.workspaces[id]

	k := deposit.Direct(&dep.set, &ws.grid, ws.nodal)
	k.DepositIdx(ws.buf, p, bins.Idx, bins.Off[t]+gi, bins.Off[t+1], dep.group)

	// Everyone finishes scattering before anyone merges.
	barrier.Done()
	barrier.Wait()

	vol := ws.grid.Volume
	for i := gi; i < len(ws.buf); i += dep.group {
		v := ws.buf[i]
		if v == 0 {
			continue
		}
		x, y, z := ws.grid.Coords(i % vol)
		if !f.BoundsCheck(x, y, z) {
			continue
		}
		f.AtomicAddAt(f.CompIdx(x, y, z, i/vol), v)
	}

	if dep.strategy == balance.WorkerClock {
		dep.busy.Add(time.Since(start).Seconds())
	}
	if atomic.AddInt32(&ws.left, -1) == 0 {
		free <- id
	}
	wg.Done()
}

func (dep *Depositor) charge(f *field.Field, p *deposit.Batch, elapsed time.Duration) {
	if dep.cost == nil || dep.strategy == balance.Disabled {
		return
	}

	switch dep.strategy {
	case balance.Heuristic:
		cells := f.Valid.Width[0] * f.Valid.Width[1] * f.Valid.Width[2]
		dep.cost.Add(balance.HeuristicCost(cells, p.Len()))
	case balance.WallClock:
		dep.cost.Add(elapsed.Seconds())
	case balance.WorkerClock:
		dep.cost.Add(dep.busy.Value())
		dep.busy.Reset()
	}
}
