/*package boundary applies perfectly conducting wall corrections to grid
patches after deposition.

A conductor forces the tangential electric field and the normal magnetic
field to zero on the wall. Guard samples become signed images of interior
samples, and charge or current that a shape stencil leaked past a wall is
folded back inside, with signs set by whether the wall absorbs or reflects
particles.

All passes work sample by sample against the global domain box, so they
apply unchanged to patches that only touch a wall with their guard ring.
*/
package boundary

import (
	"fmt"

	"github.com/tmsclark2/WarpX/geom"
)

////////////
// Consts //
////////////

// FieldKind names the field condition on one wall.
type FieldKind int

const (
	// FieldNone leaves the wall open. Passes skip it entirely.
	FieldNone FieldKind = iota
	// FieldPEC marks a perfect electric conductor.
	FieldPEC
)

func (k FieldKind) String() string {
	switch k {
	case FieldNone:
		return "None"
	case FieldPEC:
		return "PEC"
	}
	return "Unknown"
}

// ParticleKind names the particle condition on one wall. It fixes the sign
// charge and current fold back into the domain with.
type ParticleKind int

const (
	// ParticleAbsorbing walls swallow particles, so guard charge folds
	// back as an image of opposite sign.
	ParticleAbsorbing ParticleKind = iota
	// ParticleReflecting walls bounce particles, so guard charge folds
	// back with its own sign.
	ParticleReflecting
)

func (k ParticleKind) String() string {
	switch k {
	case ParticleAbsorbing:
		return "Absorbing"
	case ParticleReflecting:
		return "Reflecting"
	}
	return "Unknown"
}

// ParseFieldKind converts a config-file wall name to a FieldKind.
func ParseFieldKind(name string) (FieldKind, error) {
	switch name {
	case "", "None", "none":
		return FieldNone, nil
	case "PEC", "pec":
		return FieldPEC, nil
	}
	return FieldNone, fmt.Errorf("unknown field boundary %q", name)
}

// ParseParticleKind converts a config-file wall name to a ParticleKind.
func ParseParticleKind(name string) (ParticleKind, error) {
	switch name {
	case "", "Absorbing", "absorbing":
		return ParticleAbsorbing, nil
	case "Reflecting", "reflecting":
		return ParticleReflecting, nil
	}
	return ParticleAbsorbing, fmt.Errorf("unknown particle boundary %q", name)
}

/////////////////
// Descriptor  //
/////////////////

// Descriptor fixes the boundary treatment of one domain. Walls are indexed
// by grid axis and side, side 0 the low wall and side 1 the high wall.
// Axes past Dims are ignored.
type Descriptor struct {
	// Dims is the number of resolved grid axes. RZ marks cylindrical
	// domains, which scale radial field images and whose low radial edge
	// is the beam axis rather than a wall.
	Dims int
	RZ   bool

	// Domain is the cell-centered valid box of the whole domain, not of
	// any one patch.
	Domain geom.CellBounds

	Field    [3][2]FieldKind
	Particle [3][2]ParticleKind
}

// Check validates the descriptor before any pass runs from it.
func (d *Descriptor) Check() error {
	if d.Dims < 1 || d.Dims > 3 {
		return fmt.Errorf("boundary descriptor needs 1 to 3 axes, got %d", d.Dims)
	}
	if d.RZ && d.Dims != 2 {
		return fmt.Errorf("cylindrical domains resolve 2 axes, got %d", d.Dims)
	}
	if d.RZ && d.Field[0][0] == FieldPEC {
		return fmt.Errorf("the low radial edge is the beam axis, not a wall")
	}
	for dim := 0; dim < d.Dims; dim++ {
		if d.Domain.Width[dim] < 1 {
			return fmt.Errorf("domain is empty along axis %d", dim)
		}
	}
	return nil
}

// AnyPEC returns true if at least one resolved wall is a conductor, so
// callers can skip whole passes on fully open domains.
func (d *Descriptor) AnyPEC() bool {
	for dim := 0; dim < d.Dims; dim++ {
		for side := 0; side < 2; side++ {
			if d.Field[dim][side] == FieldPEC {
				return true
			}
		}
	}
	return false
}

// pec returns true if the given wall is a conductor.
func (d *Descriptor) pec(dim, side int) bool {
	return dim < d.Dims && d.Field[dim][side] == FieldPEC
}

// tangential returns true if vector component comp runs tangential to
// walls on the given grid axis. With compressed grid axes the component
// normal to axis dim is dim itself in 3D, 2*dim in 2D and RZ (x or r is
// component 0, z component 2), and dim+2 in 1D, where only z is resolved.
func (d *Descriptor) tangential(comp, dim int) bool {
	switch d.Dims {
	case 1:
		return comp != dim+2
	case 2:
		return comp != 2*dim
	}
	return comp != dim
}
