package warpx

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/tmsclark2/WarpX/balance"
	"github.com/tmsclark2/WarpX/deposit"
	"github.com/tmsclark2/WarpX/field"
	"github.com/tmsclark2/WarpX/geom"
	"github.com/tmsclark2/WarpX/shape"
)

func testSettings3D() deposit.Settings {
	return deposit.Settings{
		Geom:     deposit.Cart3D,
		Order:    shape.Quadratic,
		Charge:   -1,
		CellSize: [3]float64{0.5, 0.5, 0.5},
	}
}

func testField(set *deposit.Settings) *field.Field {
	valid := geom.CellBounds{Width: [3]int{1, 1, 1}}
	nodal := [3]bool{}
	for d := 0; d < set.Geom.Dims(); d++ {
		valid.Width[d] = 16
		nodal[d] = true
	}
	return field.New(valid, 3, nodal, set.Comps())
}

// testBatch scatters particles over [1, 1+span] per Cartesian axis. RZ
// callers keep span low enough that the radius stays inside the domain.
func testBatch(n int, seed int64, span float64) *deposit.Batch {
	rng := rand.New(rand.NewSource(seed))
	p := &deposit.Batch{
		X: make([]float64, n), Y: make([]float64, n),
		Z: make([]float64, n), W: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p.X[i] = 1 + span*rng.Float64()
		p.Y[i] = 1 + span*rng.Float64()
		p.Z[i] = 1 + span*rng.Float64()
		p.W[i] = 0.5 + rng.Float64()
	}
	return p
}

func TestTiledMatchesDirect(t *testing.T) {
	set := testSettings3D()
	p := testBatch(2000, 42, 6)

	direct, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	fD := testField(&set)
	direct.Deposit(fD, p)

	tiled, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	if err = tiled.EnableTiling([3]int{8, 8, 8}, 2, 1<<20); err != nil {
		t.Fatalf("EnableTiling failed: %v", err)
	}
	fT := testField(&set)
	tiled.Deposit(fT, p)

	want := set.Charge * floats.Sum(p.W)
	got := floats.Sum(fT.Data) * set.CellVolume()
	if !scalar.EqualWithinAbsOrRel(got, want, 1e-9, 1e-9) {
		t.Errorf("Expected tiled total charge %g, got %g.", want, got)
	}

	for i := range fD.Data {
		if !scalar.EqualWithinAbs(fD.Data[i], fT.Data[i], 1e-11) {
			x, y, z := fD.Coords(i)
			t.Errorf("Sample (%d, %d, %d): Expected %g, got %g.",
				x, y, z, fD.Data[i], fT.Data[i])
			break
		}
	}
}

func TestTiledRZMatchesDirect(t *testing.T) {
	set := deposit.Settings{
		Geom:     deposit.CylRZ,
		Order:    shape.Linear,
		Charge:   2,
		CellSize: [3]float64{0.5, 0.5, 0},
		Modes:    2,
	}
	p := testBatch(1000, 7, 4)

	direct, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	fD := testField(&set)
	direct.Deposit(fD, p)

	tiled, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	if err = tiled.EnableTiling([3]int{4, 4, 4}, 2, 1<<20); err != nil {
		t.Fatalf("EnableTiling failed: %v", err)
	}
	fT := testField(&set)
	tiled.Deposit(fT, p)

	for i := range fD.Data {
		if !scalar.EqualWithinAbs(fD.Data[i], fT.Data[i], 1e-11) {
			t.Errorf("Sample %d: Expected %g, got %g.", i, fD.Data[i], fT.Data[i])
			break
		}
	}
}

func TestTiledMatchesDirectCellCentered(t *testing.T) {
	set := testSettings3D()
	set.Order = shape.Cubic

	// Cell-centered staggering shifts every stencil half a cell, so edge
	// particles lean on the tile margin. The tile edge of 5 leaves the
	// last tile of each axis one cell wide on a 16-cell domain.
	rng := rand.New(rand.NewSource(19))
	n := 1500
	p := &deposit.Batch{
		X: make([]float64, n), Y: make([]float64, n),
		Z: make([]float64, n), W: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p.X[i] = 0.05 + 7.9*rng.Float64()
		p.Y[i] = 0.05 + 7.9*rng.Float64()
		p.Z[i] = 0.05 + 7.9*rng.Float64()
		p.W[i] = 0.5 + rng.Float64()
	}

	valid := geom.CellBounds{Width: [3]int{16, 16, 16}}

	direct, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	fD := field.New(valid, 3, [3]bool{}, set.Comps())
	direct.Deposit(fD, p)

	tiled, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	if err = tiled.EnableTiling([3]int{5, 5, 5}, 2, 1<<20); err != nil {
		t.Fatalf("EnableTiling failed: %v", err)
	}
	fT := field.New(valid, 3, [3]bool{}, set.Comps())
	tiled.Deposit(fT, p)

	want := set.Charge * floats.Sum(p.W)
	got := floats.Sum(fT.Data) * set.CellVolume()
	if !scalar.EqualWithinAbsOrRel(got, want, 1e-9, 1e-9) {
		t.Errorf("Expected tiled total charge %g, got %g.", want, got)
	}

	for i := range fD.Data {
		if !scalar.EqualWithinAbs(fD.Data[i], fT.Data[i], 1e-11) {
			x, y, z := fD.Coords(i)
			t.Errorf("Sample (%d, %d, %d): Expected %g, got %g.",
				x, y, z, fD.Data[i], fT.Data[i])
			break
		}
	}
}

func TestSingleWorkerDeterminism(t *testing.T) {
	set := testSettings3D()
	p := testBatch(500, 3, 6)

	runs := [2][]float64{}
	for r := 0; r < 2; r++ {
		dep, err := NewDepositor(set, 1)
		if err != nil {
			t.Fatalf("NewDepositor failed: %v", err)
		}
		if err = dep.EnableTiling([3]int{8, 8, 8}, 1, 1<<20); err != nil {
			t.Fatalf("EnableTiling failed: %v", err)
		}
		f := testField(&set)
		dep.Deposit(f, p)
		runs[r] = f.Data
	}

	for i := range runs[0] {
		if runs[0][i] != runs[1][i] {
			t.Errorf("Sample %d: %g != %g across reruns.",
				i, runs[0][i], runs[1][i])
			break
		}
	}
}

func TestDepositEmptyBatch(t *testing.T) {
	set := testSettings3D()
	dep, err := NewDepositor(set, 4)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	if err = dep.EnableTiling([3]int{8, 8, 8}, 2, 1<<20); err != nil {
		t.Fatalf("EnableTiling failed: %v", err)
	}

	f := testField(&set)
	dep.Deposit(f, &deposit.Batch{})

	if got := floats.Sum(f.Data); got != 0 {
		t.Errorf("Expected empty field, total %g.", got)
	}
}

func TestHeuristicCost(t *testing.T) {
	set := testSettings3D()
	p := testBatch(100, 11, 6)

	dep, err := NewDepositor(set, 2)
	if err != nil {
		t.Fatalf("NewDepositor failed: %v", err)
	}
	c := &balance.Cost{}
	dep.SetCost(c, balance.Heuristic)

	f := testField(&set)
	dep.Deposit(f, p)
	dep.Deposit(f, p)

	want := 2 * balance.HeuristicCost(16*16*16, p.Len())
	if !scalar.EqualWithinAbs(c.Value(), want, 1e-9) {
		t.Errorf("Expected cost %g, got %g.", want, c.Value())
	}
}

func TestClockCosts(t *testing.T) {
	set := testSettings3D()
	p := testBatch(2000, 13, 6)

	for i, s := range []balance.Strategy{balance.WallClock, balance.WorkerClock} {
		dep, err := NewDepositor(set, 2)
		if err != nil {
			t.Fatalf("%d) NewDepositor failed: %v", i, err)
		}
		c := &balance.Cost{}
		dep.SetCost(c, s)

		f := testField(&set)
		dep.Deposit(f, p)

		if c.Value() <= 0 {
			t.Errorf("%d) Expected positive %s cost, got %g.", i, s, c.Value())
		}
	}
}

func TestEnableTilingErrors(t *testing.T) {
	set := testSettings3D()

	table := []struct {
		tile   [3]int
		group  int
		budget int
	}{
		{[3]int{0, 8, 8}, 1, 0},
		{[3]int{8, 8, 8}, 0, 0},
		{[3]int{8, 8, 8}, 9, 0},
		{[3]int{32, 32, 32}, 1, 1 << 10},
	}

	for i, test := range table {
		dep, err := NewDepositor(set, 8)
		if err != nil {
			t.Fatalf("%d) NewDepositor failed: %v", i, err)
		}
		if err = dep.EnableTiling(test.tile, test.group, test.budget); err == nil {
			t.Errorf("%d) Expected EnableTiling error, got none.", i)
		}
	}
}

func BenchmarkDepositDirect(b *testing.B) {
	set := testSettings3D()
	p := testBatch(10*1000, 1, 6)
	dep, _ := NewDepositor(set, 0)
	f := testField(&set)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dep.Deposit(f, p)
	}
}

func BenchmarkDepositTiled(b *testing.B) {
	set := testSettings3D()
	p := testBatch(10*1000, 1, 6)
	dep, _ := NewDepositor(set, 0)
	if err := dep.EnableTiling([3]int{8, 8, 8}, 1, 1<<20); err != nil {
		b.Fatalf("EnableTiling failed: %v", err)
	}
	f := testField(&set)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dep.Deposit(f, p)
	}
}
