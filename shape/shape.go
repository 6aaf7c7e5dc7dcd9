/*package shape computes the B-spline weights that spread a particle's
charge across its neighboring grid points.

A particle at fractional grid coordinate x touches order+1 consecutive
points along each axis. The weights form a partition of unity at every x,
which is what makes deposition conserve total charge exactly.
*/
package shape

// Order selects the interpolation kernel. Higher orders trade stencil
// width for smoothness.
type Order int

const (
	NGP Order = iota
	Linear
	Quadratic
	Cubic
)

// Func fills the first Support() entries of w with stencil weights at the
// fractional grid coordinate x and returns the index of the leftmost grid
// point touched. x is assumed non-negative; callers arrange their index
// spaces so that particles sit well inside the patch.
type Func func(x float64, w *[4]float64) int

// Support returns the number of grid points touched along one axis.
func (o Order) Support() int { return int(o) + 1 }

// Valid returns true if o names one of the supported kernels.
func (o Order) Valid() bool { return o >= NGP && o <= Cubic }

func (o Order) String() string {
	switch o {
	case NGP:
		return "NGP"
	case Linear:
		return "Linear"
	case Quadratic:
		return "Quadratic"
	case Cubic:
		return "Cubic"
	}
	return "Unknown"
}

// Eval returns the weight evaluator for o. The order is a simulation-wide
// constant, so the selection is made once and the returned Func is called
// from the particle loops.
func (o Order) Eval() Func {
	switch o {
	case NGP:
		return eval0
	case Linear:
		return eval1
	case Quadratic:
		return eval2
	case Cubic:
		return eval3
	}
	panic("Internal flag inconsistency.")
}

func eval0(x float64, w *[4]float64) int {
	j := int(x + 0.5)
	w[0] = 1
	return j
}

func eval1(x float64, w *[4]float64) int {
	j := int(x)
	xi := x - float64(j)
	w[0] = 1 - xi
	w[1] = xi
	return j
}

func eval2(x float64, w *[4]float64) int {
	// The stencil is centered on the nearest point, so xi lands in
	// [-1/2, 1/2).
	j := int(x + 0.5)
	xi := x - float64(j)
	w[0] = 0.5 * (0.5 - xi) * (0.5 - xi)
	w[1] = 0.75 - xi*xi
	w[2] = 0.5 * (0.5 + xi) * (0.5 + xi)
	return j - 1
}

func eval3(x float64, w *[4]float64) int {
	j := int(x)
	xi := x - float64(j)
	oxi := 1 - xi
	w[0] = oxi * oxi * oxi / 6
	w[1] = 2.0/3.0 - xi*xi*(1-xi/2)
	w[2] = 2.0/3.0 - oxi*oxi*(1-oxi/2)
	w[3] = xi * xi * xi / 6
	return j - 1
}
