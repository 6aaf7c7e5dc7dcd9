/*package field holds the dense grid patches that deposition writes into and
the boundary passes correct.
*/
package field

import (
	"github.com/tmsclark2/WarpX/geom"
)

// Field is one grid quantity over a local patch. The patch covers the valid
// cells plus a guard margin, and the embedded Grid runs over samples in
// global index space: guard samples carry coordinates below the valid
// origin or past its end, and node-centered axes are one sample wider than
// the cell box they cover.
type Field struct {
	geom.Grid

	// Valid is the cell-centered box the patch owns, without guards.
	Valid geom.CellBounds

	// Guard is the number of guard cells on each side of every resolved
	// axis. Deposition requires a margin at least as wide as the shape
	// order when particles sit in edge cells.
	Guard int

	// Nodal marks node-centered axes. Deposition staggers particle
	// coordinates by half a cell on axes that are cell-centered instead.
	Nodal [3]bool

	// Comps is 1 for Cartesian scalars. Azimuthal-mode fields carry
	// 2*modes-1 component planes: plane 0 is the monopole, planes 2m-1 and
	// 2m the cosine and sine parts of mode m.
	Comps int

	Data []float64
}

// New returns a zeroed Field over valid plus guard cells on every resolved
// axis. Degenerate axes of width 1 take neither guards nor the extra nodal
// sample, so unused directions stay flat.
func New(valid geom.CellBounds, guard int, nodal [3]bool, comps int) *Field {
	f := &Field{Valid: valid, Guard: guard, Nodal: nodal, Comps: comps}
	cb := valid.Grow(guard)
	for d := 0; d < 3; d++ {
		if nodal[d] && cb.Width[d] > 1 {
			cb.Width[d]++
		}
	}
	f.Grid.Init(cb.Origin, cb.Width)
	f.Data = make([]float64, f.Volume*comps)
	return f
}

// ValidHi returns the largest valid sample coordinate along dim, one past
// the last valid cell on resolved node-centered axes.
func (f *Field) ValidHi(dim int) int {
	if f.Valid.Width[dim] == 1 {
		return f.Valid.Hi(dim)
	}
	return f.Valid.Hi(dim) + f.NodalBit(dim)
}

// CompIdx returns the flattened index of (x, y, z) in component plane c.
func (f *Field) CompIdx(x, y, z, c int) int {
	return f.Idx(x, y, z) + c*f.Volume
}

// At returns the value at (x, y, z) in component plane c.
func (f *Field) At(x, y, z, c int) float64 {
	return f.Data[f.CompIdx(x, y, z, c)]
}

// Set stores v at (x, y, z) in component plane c.
func (f *Field) Set(x, y, z, c int, v float64) {
	f.Data[f.CompIdx(x, y, z, c)] = v
}

// Fill sets every sample of every component plane to v.
func (f *Field) Fill(v float64) {
	for i := range f.Data {
		f.Data[i] = v
	}
}

// Plane returns the slice backing component plane c.
func (f *Field) Plane(c int) []float64 {
	return f.Data[c*f.Volume : (c+1)*f.Volume]
}

// NodalBit returns 1 if the given axis is node-centered and 0 otherwise.
// Boundary index arithmetic works in these integer offsets.
func (f *Field) NodalBit(dim int) int {
	if f.Nodal[dim] {
		return 1
	}
	return 0
}
