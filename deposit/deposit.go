/*package deposit scatters the charge carried by macro-particles onto grid
patches.

Kernels write through the atomic add in the field package, so any number of
goroutines may share one destination buffer: concurrent contributions to the
same cell never lose updates. Particles whose stencil reaches outside the
destination bounds are a caller contract violation and are not checked for
in the hot loops.
*/
package deposit

import (
	"fmt"
	"math"
	"strings"

	"github.com/tmsclark2/WarpX/field"
	"github.com/tmsclark2/WarpX/geom"
	"github.com/tmsclark2/WarpX/shape"
)

////////////////
// Interfaces //
////////////////

// Kernel scatters macro-particles onto a grid buffer laid out over the
// bounds the kernel was built with.
type Kernel interface {
	// Deposit scatters particles low, low+jump, low+2*jump, ... of p
	// onto buf.
	Deposit(buf []float64, p *Batch, low, high, jump int)

	// DepositIdx is Deposit over an explicit particle index list, the way
	// tile worker groups walk a binning permutation.
	DepositIdx(buf []float64, p *Batch, idx []int, low, high, jump int)
}

// Geometry selects the coordinate system particles and grids live in. Grid
// axes are compressed: 1D grids use axis 0 for z, 2D Cartesian and RZ grids
// use axes 0 and 1 for x (or r) and z, and 3D grids use all three.
type Geometry int

const (
	Cart1D Geometry = iota
	Cart2D
	CylRZ
	Cart3D
)

func (g Geometry) String() string {
	switch g {
	case Cart1D:
		return "1D"
	case Cart2D:
		return "2D"
	case CylRZ:
		return "RZ"
	case Cart3D:
		return "3D"
	}
	return "Unknown"
}

// Valid returns true if g names one of the supported coordinate systems.
func (g Geometry) Valid() bool { return g >= Cart1D && g <= Cart3D }

// ParseGeometry converts a config-file geometry name to a Geometry. Names
// are matched without case.
func ParseGeometry(name string) (Geometry, error) {
	switch strings.ToLower(name) {
	case "1d":
		return Cart1D, nil
	case "2d":
		return Cart2D, nil
	case "rz":
		return CylRZ, nil
	case "3d":
		return Cart3D, nil
	}
	return Cart3D, fmt.Errorf("unknown geometry %q", name)
}

// Dims returns the number of grid axes the geometry resolves.
func (g Geometry) Dims() int {
	switch g {
	case Cart1D:
		return 1
	case Cart2D, CylRZ:
		return 2
	}
	return 3
}

// Batch is a set of macro-particles in struct-of-arrays form. Positions are
// physical Cartesian coordinates: 1D kernels read Z, 2D kernels read X and
// Z, RZ kernels read all three (X and Y fold into radius and angle), and 3D
// kernels read all three. Batches are immutable for the duration of a
// deposition pass.
type Batch struct {
	X, Y, Z []float64
	W       []float64

	// Ion holds per-particle ionization levels. A nil slice fixes the
	// charge state of the whole batch at 1; the choice is resolved once per
	// pass, not per particle.
	Ion []int
}

// Len returns the number of particles in the batch.
func (p *Batch) Len() int { return len(p.W) }

// Settings fixes the physics of a deposition pass. CellSize and Origin are
// per grid axis in the compressed convention, with Origin the physical
// position of the node at global index 0.
type Settings struct {
	Geom   Geometry
	Order  shape.Order
	Charge float64

	CellSize [3]float64
	Origin   [3]float64

	// Modes is the number of azimuthal modes kept in CylRZ runs. Mode 0 is
	// always deposited; modes 1..Modes-1 add cosine/sine component pairs.
	Modes int
}

// Check validates the settings before any kernel is built from them.
func (s *Settings) Check() error {
	if !s.Geom.Valid() {
		return fmt.Errorf("unknown geometry %d", int(s.Geom))
	}
	if !s.Order.Valid() {
		return fmt.Errorf("shape order must be 0 through 3, got %d", int(s.Order))
	}
	for d := 0; d < s.Geom.Dims(); d++ {
		if s.CellSize[d] <= 0 {
			return fmt.Errorf("%s cell size on axis %d must be positive, got %g",
				s.Geom, d, s.CellSize[d])
		}
	}
	if s.Geom == CylRZ {
		if s.Modes < 1 {
			return fmt.Errorf("RZ runs need at least 1 azimuthal mode, got %d",
				s.Modes)
		}
	} else if s.Modes > 1 {
		return fmt.Errorf("azimuthal modes only apply to RZ, not %s", s.Geom)
	}
	return nil
}

// Comps returns the number of component planes a grid deposited with s
// carries: 1 for Cartesian runs, 2*Modes-1 for RZ.
func (s *Settings) Comps() int {
	if s.Geom == CylRZ {
		return 2*s.Modes - 1
	}
	return 1
}

// CellVolume returns the volume of one grid cell over the active axes.
func (s *Settings) CellVolume() float64 {
	v := 1.0
	for d := 0; d < s.Geom.Dims(); d++ {
		v *= s.CellSize[d]
	}
	return v
}

////////////////////////////
// Kernel implementations //
////////////////////////////

type baseKernel struct {
	g     *geom.Grid
	eval  shape.Func
	sup   int
	nodal [3]bool

	// off[d] is the physical position of buffer node 0 on grid axis d, so
	// (pos - off) * invDx lands in the buffer's own index space.
	off   [3]float64
	invDx [3]float64

	wqFac float64
	modes int
}

func (k *baseKernel) init(s *Settings, g *geom.Grid, nodal [3]bool) {
	k.g = g
	k.eval = s.Order.Eval()
	k.sup = s.Order.Support()
	k.nodal = nodal

	for d := 0; d < 3; d++ {
		if s.CellSize[d] != 0 {
			k.invDx[d] = 1 / s.CellSize[d]
		}
		k.off[d] = s.Origin[d] + float64(g.Origin[d])*s.CellSize[d]
	}

	k.wqFac = s.Charge / s.CellVolume()
	k.modes = s.Modes
}

// frac converts a physical coordinate to the buffer-relative fractional
// grid coordinate on axis d, staggered half a cell on cell-centered axes.
func (k *baseKernel) frac(pos float64, d int) float64 {
	x := (pos - k.off[d]) * k.invDx[d]
	if !k.nodal[d] {
		x -= 0.5
	}
	return x
}

func (k *baseKernel) weight(p *Batch, i int) float64 {
	wq := k.wqFac * p.W[i]
	if p.Ion != nil {
		wq *= float64(p.Ion[i])
	}
	return wq
}

// Direct returns the per-particle scatter kernel for the geometry fixed in
// s, writing into buffers laid out over g with the given staggering. The
// settings are assumed to have passed Check.
func Direct(s *Settings, g *geom.Grid, nodal [3]bool) Kernel {
	var k Kernel
	switch s.Geom {
	case Cart1D:
		d := &direct1D{}
		d.init(s, g, nodal)
		k = d
	case Cart2D:
		d := &direct2D{}
		d.init(s, g, nodal)
		k = d
	case CylRZ:
		d := &directRZ{}
		d.init(s, g, nodal)
		k = d
	case Cart3D:
		d := &direct3D{}
		d.init(s, g, nodal)
		k = d
	default:
		panic("Internal flag inconsistency.")
	}
	return k
}

type direct1D struct {
	baseKernel
}

func (k *direct1D) one(buf []float64, p *Batch, pi int, wz *[4]float64) {
	wq := k.weight(p, pi)
	jz := k.eval(k.frac(p.Z[pi], 0), wz)

	for i := 0; i < k.sup; i++ {
		field.AtomicAdd(&buf[jz+i], wz[i]*wq)
	}
}

func (k *direct1D) Deposit(buf []float64, p *Batch, low, high, jump int) {
	wz := [4]float64{}
	for i := low; i < high; i += jump {
		k.one(buf, p, i, &wz)
	}
}

func (k *direct1D) DepositIdx(buf []float64, p *Batch, idx []int, low, high, jump int) {
	wz := [4]float64{}
	for i := low; i < high; i += jump {
		k.one(buf, p, idx[i], &wz)
	}
}

type direct2D struct {
	baseKernel
}

func (k *direct2D) one(buf []float64, p *Batch, pi int, wx, wz *[4]float64) {
	wq := k.weight(p, pi)
	jx := k.eval(k.frac(p.X[pi], 0), wx)
	jz := k.eval(k.frac(p.Z[pi], 1), wz)

	for j := 0; j < k.sup; j++ {
		row := jx + (jz+j)*k.g.Length
		wzj := wz[j] * wq
		for i := 0; i < k.sup; i++ {
			field.AtomicAdd(&buf[row+i], wx[i]*wzj)
		}
	}
}

func (k *direct2D) Deposit(buf []float64, p *Batch, low, high, jump int) {
	var wx, wz [4]float64
	for i := low; i < high; i += jump {
		k.one(buf, p, i, &wx, &wz)
	}
}

func (k *direct2D) DepositIdx(buf []float64, p *Batch, idx []int, low, high, jump int) {
	var wx, wz [4]float64
	for i := low; i < high; i += jump {
		k.one(buf, p, idx[i], &wx, &wz)
	}
}

type directRZ struct {
	baseKernel
}

func (k *directRZ) one(buf []float64, p *Batch, pi int, wr, wz *[4]float64) {
	wq := k.weight(p, pi)

	xp, yp := p.X[pi], p.Y[pi]
	rp := math.Sqrt(xp*xp + yp*yp)
	cos, sin := 1.0, 0.0
	if rp > 0 {
		cos, sin = xp/rp, yp/rp
	}

	jr := k.eval(k.frac(rp, 0), wr)
	jz := k.eval(k.frac(p.Z[pi], 1), wz)

	vol := k.g.Volume
	for j := 0; j < k.sup; j++ {
		row := jr + (jz+j)*k.g.Length
		wzj := wz[j] * wq
		for i := 0; i < k.sup; i++ {
			cell := row + i
			tw := wr[i] * wzj
			field.AtomicAdd(&buf[cell], tw)

			// Unit direction vector walked up the modes by complex
			// multiplication: no trig calls past the division above.
			cosm, sinm := cos, sin
			for m := 1; m < k.modes; m++ {
				field.AtomicAdd(&buf[cell+(2*m-1)*vol], 2*tw*cosm)
				field.AtomicAdd(&buf[cell+2*m*vol], 2*tw*sinm)
				cosm, sinm = cosm*cos-sinm*sin, cosm*sin+sinm*cos
			}
		}
	}
}

func (k *directRZ) Deposit(buf []float64, p *Batch, low, high, jump int) {
	var wr, wz [4]float64
	for i := low; i < high; i += jump {
		k.one(buf, p, i, &wr, &wz)
	}
}

func (k *directRZ) DepositIdx(buf []float64, p *Batch, idx []int, low, high, jump int) {
	var wr, wz [4]float64
	for i := low; i < high; i += jump {
		k.one(buf, p, idx[i], &wr, &wz)
	}
}

type direct3D struct {
	baseKernel
}

func (k *direct3D) one(buf []float64, p *Batch, pi int, wx, wy, wz *[4]float64) {
	wq := k.weight(p, pi)
	jx := k.eval(k.frac(p.X[pi], 0), wx)
	jy := k.eval(k.frac(p.Y[pi], 1), wy)
	jz := k.eval(k.frac(p.Z[pi], 2), wz)

	for kk := 0; kk < k.sup; kk++ {
		plane := (jz + kk) * k.g.Area
		wzk := wz[kk] * wq
		for j := 0; j < k.sup; j++ {
			row := jx + (jy+j)*k.g.Length + plane
			wyj := wy[j] * wzk
			for i := 0; i < k.sup; i++ {
				field.AtomicAdd(&buf[row+i], wx[i]*wyj)
			}
		}
	}
}

func (k *direct3D) Deposit(buf []float64, p *Batch, low, high, jump int) {
	var wx, wy, wz [4]float64
	for i := low; i < high; i += jump {
		k.one(buf, p, i, &wx, &wy, &wz)
	}
}

func (k *direct3D) DepositIdx(buf []float64, p *Batch, idx []int, low, high, jump int) {
	var wx, wy, wz [4]float64
	for i := low; i < high; i += jump {
		k.one(buf, p, idx[i], &wx, &wy, &wz)
	}
}

// Typechecking
var (
	_ Kernel = &direct1D{}
	_ Kernel = &direct2D{}
	_ Kernel = &directRZ{}
	_ Kernel = &direct3D{}
)
