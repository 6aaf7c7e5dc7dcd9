package boundary

import (
	"github.com/tmsclark2/WarpX/field"
)

// sourceTables holds the per-axis constants of one source fold: the mirror
// of sample i along axis dim is mirrorFac[dim][side] - i.
type sourceTables struct {
	mirrorFac [3][2]int
	psign     [3][2]float64
	tangent   [3]bool
}

func (d *Descriptor) sourceTablesFor(f *field.Field, comp int, isRho bool) sourceTables {
	t := sourceTables{}
	for dim := 0; dim < d.Dims; dim++ {
		nb := f.NodalBit(dim)
		loS := d.Domain.Origin[dim]
		hiS := d.Domain.Hi(dim) + nb

		t.mirrorFac[dim][0] = 2*loS - (1 - nb)
		t.mirrorFac[dim][1] = 2*hiS + (1 - nb)

		// Scalar charge folds like a tangential vector component.
		t.tangent[dim] = isRho || d.tangential(comp, dim)

		for side := 0; side < 2; side++ {
			reflect := d.Particle[dim][side] == ParticleReflecting
			if reflect == t.tangent[dim] {
				t.psign[dim][side] = 1
			} else {
				t.psign[dim][side] = -1
			}
		}
	}
	return t
}

// ApplyRho folds charge deposited past conducting walls back into the
// domain. Wall nodes are zeroed, interior samples near a wall absorb their
// guard images with the particle-boundary sign, and the guard ring is then
// rebuilt as the image of the folded interior, so a solve on the patch
// sees consistent charge on both sides of the wall.
func (d *Descriptor) ApplyRho(rho *field.Field) {
	d.applySource(rho, 0, true)
}

// ApplyJ runs the fold on every current component, with signs resolved per
// component: tangential current folds like charge, normal current with the
// opposite convention.
func (d *Descriptor) ApplyJ(j [3]*field.Field) {
	for comp, f := range j {
		if f != nil {
			d.applySource(f, comp, false)
		}
	}
}

func (d *Descriptor) applySource(f *field.Field, comp int, isRho bool) {
	t := d.sourceTablesFor(f, comp, isRho)

	// Staggered valid bounds of the patch. Guards are only ever read in
	// step one and written in step two.
	lo := f.Valid.Origin
	hi := [3]int{f.ValidHi(0), f.ValidHi(1), f.ValidHi(2)}

	for n := 0; n < f.Comps; n++ {
		plane := f.Plane(n)

		// Fold guard images onto the valid samples.
		for z := lo[2]; z <= hi[2]; z++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					v := [3]int{x, y, z}
					for dim := 0; dim < d.Dims; dim++ {
						for side := 0; side < 2; side++ {
							if !d.pec(dim, side) {
								continue
							}
							m := v
							m[dim] = t.mirrorFac[dim][side] - v[dim]
							if m[dim] == v[dim] {
								plane[f.Idx(x, y, z)] = 0
							} else if f.BoundsCheck(m[0], m[1], m[2]) {
								plane[f.Idx(x, y, z)] += t.psign[dim][side] *
									plane[f.Idx(m[0], m[1], m[2])]
							}
						}
					}
				}
			}
		}

		// Rebuild the guard ring from the folded interior.
		for z := lo[2]; z <= hi[2]; z++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					v := [3]int{x, y, z}
					for dim := 0; dim < d.Dims; dim++ {
						for side := 0; side < 2; side++ {
							if !d.pec(dim, side) {
								continue
							}
							m := v
							m[dim] = t.mirrorFac[dim][side] - v[dim]
							if m[dim] == v[dim] || !f.BoundsCheck(m[0], m[1], m[2]) {
								continue
							}
							if t.tangent[dim] {
								plane[f.Idx(m[0], m[1], m[2])] = -plane[f.Idx(x, y, z)]
							} else {
								plane[f.Idx(m[0], m[1], m[2])] = plane[f.Idx(x, y, z)]
							}
						}
					}
				}
			}
		}
	}
}

// ApplyNeumann forces a zero normal derivative on conducting walls, the
// condition scalar pressure fields need there. Wall nodes copy the first
// interior sample and guard samples copy their mirror, with no sign flips.
func (d *Descriptor) ApplyNeumann(f *field.Field) {
	t := d.sourceTablesFor(f, 0, true)

	lo := f.Valid.Origin
	hi := [3]int{f.ValidHi(0), f.ValidHi(1), f.ValidHi(2)}

	for n := 0; n < f.Comps; n++ {
		plane := f.Plane(n)
		for z := lo[2]; z <= hi[2]; z++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					v := [3]int{x, y, z}
					for dim := 0; dim < d.Dims; dim++ {
						for side := 0; side < 2; side++ {
							if !d.pec(dim, side) {
								continue
							}
							m := v
							m[dim] = t.mirrorFac[dim][side] - v[dim]
							if m[dim] == v[dim] {
								if side == 0 {
									m[dim]++
								} else {
									m[dim]--
								}
								if f.BoundsCheck(m[0], m[1], m[2]) {
									plane[f.Idx(x, y, z)] =
										plane[f.Idx(m[0], m[1], m[2])]
								}
							} else if f.BoundsCheck(m[0], m[1], m[2]) {
								plane[f.Idx(m[0], m[1], m[2])] =
									plane[f.Idx(x, y, z)]
							}
						}
					}
				}
			}
		}
	}
}
