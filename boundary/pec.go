package boundary

import (
	"github.com/tmsclark2/WarpX/field"
)

// ApplyEfield corrects an electric field at conducting walls: tangential
// components on wall nodes are zeroed, and guard samples become images of
// interior samples with tangential components sign-flipped. Nil components
// are skipped.
func (d *Descriptor) ApplyEfield(e [3]*field.Field) {
	for comp, f := range e {
		if f != nil {
			d.applyMirror(f, comp, true)
		}
	}
}

// ApplyBfield is the magnetic counterpart: normal components vanish on
// wall nodes and flip sign across the wall, tangential ones mirror
// unchanged.
func (d *Descriptor) ApplyBfield(b [3]*field.Field) {
	for comp, f := range b {
		if f != nil {
			d.applyMirror(f, comp, false)
		}
	}
}

// applyMirror walks every sample of f, including guards, and rewrites the
// ones a conducting wall determines. Zeroing wins over mirroring when a
// sample is a wall node on one axis and a guard on another. A guard's
// mirror lands strictly inside the walls, never on another guard or a wall
// node, so the pass can update in place in any iteration order.
func (d *Descriptor) applyMirror(f *field.Field, comp int, flipTangential bool) {
	nodal := [3]int{f.NodalBit(0), f.NodalBit(1), f.NodalBit(2)}
	domLo := d.Domain.Origin
	domHi := [3]int{d.Domain.Hi(0), d.Domain.Hi(1), d.Domain.Hi(2)}

	flip := [3]bool{}
	for dim := 0; dim < d.Dims; dim++ {
		flip[dim] = d.tangential(comp, dim) == flipTangential
	}

	for n := 0; n < f.Comps; n++ {
		plane := f.Plane(n)
		for z := f.Origin[2]; z < f.Origin[2]+f.Width[2]; z++ {
			for y := f.Origin[1]; y < f.Origin[1]+f.Width[1]; y++ {
				for x := f.Origin[0]; x < f.Origin[0]+f.Width[0]; x++ {
					v := [3]int{x, y, z}
					onWall, isGuard := false, false
					sign := 1.0
					mirror := v

					for dim := 0; dim < d.Dims; dim++ {
						for side := 0; side < 2; side++ {
							if !d.pec(dim, side) {
								continue
							}

							// Depth past the staggered wall. 0 is the wall
							// node itself, positive values are guards.
							var ig int
							if side == 0 {
								ig = domLo[dim] - v[dim]
							} else {
								ig = v[dim] - (domHi[dim] + nodal[dim])
							}

							if ig == 0 {
								if flip[dim] && nodal[dim] == 1 {
									onWall = true
								}
							} else if ig > 0 {
								isGuard = true
								if side == 0 {
									mirror[dim] = domLo[dim] + ig - (1 - nodal[dim])
								} else {
									mirror[dim] = domHi[dim] + 1 - ig
								}
								if flip[dim] {
									sign = -sign
								}
								if d.RZ && comp == 0 && dim == 0 && side == 1 {
									// Scale radial images so r*Fr stays flat
									// across the outer wall.
									rguard := float64(v[dim]) + 0.5*float64(1-nodal[dim])
									rmirror := float64(mirror[dim]) + 0.5*float64(1-nodal[dim])
									sign *= rmirror / rguard
								}
							}
						}
					}

					if onWall {
						plane[f.Idx(x, y, z)] = 0
					} else if isGuard {
						if f.BoundsCheck(mirror[0], mirror[1], mirror[2]) {
							plane[f.Idx(x, y, z)] =
								sign * plane[f.Idx(mirror[0], mirror[1], mirror[2])]
						}
					}
				}
			}
		}
	}
}
