package deposit

import (
	"math"

	"github.com/tmsclark2/WarpX/geom"
)

// Binning groups the particles of a batch by the tile their home cell falls
// in, so tile worker groups can walk one contiguous id range per tile. Home
// cells are clamped into the valid box, which pins stray edge particles to
// the boundary tile instead of dropping them.
type Binning struct {
	Valid geom.CellBounds

	// Tile is the tile edge in cells per grid axis and Dims the number of
	// tiles per axis. Tiles at the high end of an axis may be truncated.
	Tile, Dims [3]int

	// Idx holds particle ids grouped by tile. Off[t]:Off[t+1] spans the
	// ids of tile t, in ascending id order.
	Idx []int
	Off []int
}

// BinParticles sorts the particle ids of p into tiles of the given edge
// over the valid box. The sort is a two-pass counting sort, so it costs two
// sweeps over the batch and no comparisons.
func BinParticles(s *Settings, p *Batch, valid geom.CellBounds, tile [3]int) *Binning {
	b := &Binning{Valid: valid, Tile: tile}
	for d := 0; d < 3; d++ {
		b.Dims[d] = (valid.Width[d] + tile[d] - 1) / tile[d]
	}

	n := p.Len()
	nt := b.NumTiles()

	invDx := [3]float64{}
	for d := 0; d < s.Geom.Dims(); d++ {
		invDx[d] = 1 / s.CellSize[d]
	}

	ids := make([]int, n)
	counts := make([]int, nt)
	for i := 0; i < n; i++ {
		x0, x1, x2 := gridCoords(s.Geom, p, i)
		t := b.tileAxis(0, x0, s.Origin[0], invDx[0])
		t += b.tileAxis(1, x1, s.Origin[1], invDx[1]) * b.Dims[0]
		t += b.tileAxis(2, x2, s.Origin[2], invDx[2]) * b.Dims[0] * b.Dims[1]
		ids[i] = t
		counts[t]++
	}

	b.Off = make([]int, nt+1)
	for t := 0; t < nt; t++ {
		b.Off[t+1] = b.Off[t] + counts[t]
	}

	cursor := make([]int, nt)
	copy(cursor, b.Off[:nt])
	b.Idx = make([]int, n)
	for i, t := range ids {
		b.Idx[cursor[t]] = i
		cursor[t]++
	}

	return b
}

// tileAxis maps one grid coordinate to its tile index along axis d.
func (b *Binning) tileAxis(d int, pos, origin, invDx float64) int {
	c := int((pos-origin)*invDx) - b.Valid.Origin[d]
	if c < 0 {
		c = 0
	}
	if c >= b.Valid.Width[d] {
		c = b.Valid.Width[d] - 1
	}
	return c / b.Tile[d]
}

// NumTiles returns the total number of tiles in the decomposition.
func (b *Binning) NumTiles() int {
	return b.Dims[0] * b.Dims[1] * b.Dims[2]
}

// Count returns the number of particles binned into tile t.
func (b *Binning) Count(t int) int {
	return b.Off[t+1] - b.Off[t]
}

// TileBounds returns the cell bounds of tile t, truncated at the high edge
// of the valid box.
func (b *Binning) TileBounds(t int) geom.CellBounds {
	ids := [3]int{
		t % b.Dims[0],
		(t / b.Dims[0]) % b.Dims[1],
		t / (b.Dims[0] * b.Dims[1]),
	}

	out := geom.CellBounds{}
	for d := 0; d < 3; d++ {
		out.Origin[d] = b.Valid.Origin[d] + ids[d]*b.Tile[d]
		w := b.Tile[d]
		if rem := b.Valid.Width[d] - ids[d]*b.Tile[d]; rem < w {
			w = rem
		}
		out.Width[d] = w
	}
	return out
}

// gridCoords maps a particle's Cartesian position to coordinates along the
// compressed grid axes of the geometry.
func gridCoords(g Geometry, p *Batch, i int) (x0, x1, x2 float64) {
	switch g {
	case Cart1D:
		return p.Z[i], 0, 0
	case Cart2D:
		return p.X[i], p.Z[i], 0
	case CylRZ:
		// Same radius expression as the RZ kernel, so the home cell seen
		// here never drifts a ulp from the one the stencil is built on.
		xp, yp := p.X[i], p.Y[i]
		return math.Sqrt(xp*xp + yp*yp), p.Z[i], 0
	case Cart3D:
		return p.X[i], p.Y[i], p.Z[i]
	}
	panic("Internal flag inconsistency.")
}
