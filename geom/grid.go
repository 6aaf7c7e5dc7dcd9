package geom

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid. Unused axes carry a width of 1, so 1D and 2D patches are grids
// with degenerate trailing dimensions.
type Grid struct {
	CellBounds
	Length, Area, Volume int
	uBounds              [3]int
}

// CellBounds represents a bounding box aligned to grid cells. Origin may be
// negative: guard cells sit below the valid region in index space.
type CellBounds struct {
	Origin, Width [3]int
}

// NewGrid returns a new Grid instance.
func NewGrid(origin [3]int, width [3]int) *Grid {
	g := &Grid{}
	g.Init(origin, width)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin [3]int, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// IdxCheck returns an index and true if the given coordinates are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] &&
			z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// Hi returns the largest valid coordinate along the given dimension.
func (cb *CellBounds) Hi(dim int) int {
	return cb.Origin[dim] + cb.Width[dim] - 1
}

// Contains returns true if the given coordinates fall inside the bounds.
func (cb *CellBounds) Contains(x, y, z int) bool {
	v := [3]int{x, y, z}
	for i := 0; i < 3; i++ {
		if v[i] < cb.Origin[i] || v[i] >= cb.Origin[i]+cb.Width[i] {
			return false
		}
	}
	return true
}

// Grow expands the bounds by n cells on both sides of every axis whose
// width is larger than 1. Degenerate axes stay degenerate so that guard
// margins are never added to directions a geometry doesn't resolve.
func (cb *CellBounds) Grow(n int) CellBounds {
	out := *cb
	for i := 0; i < 3; i++ {
		if cb.Width[i] == 1 {
			continue
		}
		out.Origin[i] -= n
		out.Width[i] += 2 * n
	}
	return out
}

// Intersect returns the overlap of two bounding boxes and true if that
// overlap is non-empty.
func (cb *CellBounds) Intersect(cb2 *CellBounds) (CellBounds, bool) {
	out := CellBounds{}
	for i := 0; i < 3; i++ {
		lo := cb.Origin[i]
		if cb2.Origin[i] > lo {
			lo = cb2.Origin[i]
		}
		hi := cb.Hi(i)
		if cb2.Hi(i) < hi {
			hi = cb2.Hi(i)
		}

		if hi < lo {
			return CellBounds{}, false
		}
		out.Origin[i] = lo
		out.Width[i] = hi - lo + 1
	}
	return out, true
}
