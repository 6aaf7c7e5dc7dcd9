package io

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/phil-mansfield/table"

	"github.com/tmsclark2/WarpX/deposit"
	"github.com/tmsclark2/WarpX/geom"
)

// NewBatch builds the macro-particle batch of one species. Table-backed
// species read x y z w columns from a text table, synthetic species place
// Particles random particles uniformly inside the domain.
func NewBatch(
	sp *SpeciesConfig, set deposit.Settings, domain geom.CellBounds,
) (*deposit.Batch, error) {
	if sp.Table != "" {
		return readBatch(sp.Table, set, domain)
	}
	return syntheticBatch(sp, set, domain), nil
}

func readBatch(
	fname string, set deposit.Settings, domain geom.CellBounds,
) (*deposit.Batch, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2, 3}, nil)
	if err != nil {
		return nil, err
	}

	p := &deposit.Batch{X: cols[0], Y: cols[1], Z: cols[2], W: cols[3]}
	if err := checkBatch(p, set, domain, fname); err != nil {
		return nil, err
	}
	return p, nil
}

// checkBatch rejects tables with particles outside the domain, which the
// unchecked scatter loops would turn into silent corruption.
func checkBatch(
	p *deposit.Batch, set deposit.Settings, domain geom.CellBounds,
	fname string,
) error {
	dims := set.Geom.Dims()
	lo, hi := [3]float64{}, [3]float64{}
	for d := 0; d < dims; d++ {
		lo[d] = set.Origin[d]
		hi[d] = set.Origin[d] + float64(domain.Width[d])*set.CellSize[d]
	}

	for i := 0; i < p.Len(); i++ {
		var u [3]float64
		switch set.Geom {
		case deposit.Cart1D:
			u[0] = p.Z[i]
		case deposit.Cart2D:
			u[0], u[1] = p.X[i], p.Z[i]
		case deposit.CylRZ:
			u[0] = math.Sqrt(p.X[i]*p.X[i] + p.Y[i]*p.Y[i])
			u[1] = p.Z[i]
		case deposit.Cart3D:
			u[0], u[1], u[2] = p.X[i], p.Y[i], p.Z[i]
		}

		for d := 0; d < dims; d++ {
			if u[d] < lo[d] || u[d] > hi[d] {
				return fmt.Errorf(
					"Particle %d of table '%s' is outside the domain on "+
						"axis %d.", i, fname, d,
				)
			}
		}
	}
	return nil
}

func syntheticBatch(
	sp *SpeciesConfig, set deposit.Settings, domain geom.CellBounds,
) *deposit.Batch {
	rnd := rand.New(rand.NewSource(sp.Seed))
	n := sp.Particles
	p := &deposit.Batch{
		X: make([]float64, n), Y: make([]float64, n),
		Z: make([]float64, n), W: make([]float64, n),
	}

	ext := [3]float64{}
	for d := 0; d < set.Geom.Dims(); d++ {
		ext[d] = float64(domain.Width[d]) * set.CellSize[d]
	}

	for i := 0; i < n; i++ {
		switch set.Geom {
		case deposit.Cart1D:
			p.Z[i] = set.Origin[0] + rnd.Float64()*ext[0]
		case deposit.Cart2D:
			p.X[i] = set.Origin[0] + rnd.Float64()*ext[0]
			p.Z[i] = set.Origin[1] + rnd.Float64()*ext[1]
		case deposit.CylRZ:
			// Uniform over the disc area, so the radial density profile
			// comes out flat.
			rlo := set.Origin[0]
			rhi := set.Origin[0] + ext[0]
			r := math.Sqrt(rlo*rlo + rnd.Float64()*(rhi*rhi-rlo*rlo))
			sin, cos := math.Sincos(2 * math.Pi * rnd.Float64())
			p.X[i], p.Y[i] = r*cos, r*sin
			p.Z[i] = set.Origin[1] + rnd.Float64()*ext[1]
		case deposit.Cart3D:
			p.X[i] = set.Origin[0] + rnd.Float64()*ext[0]
			p.Y[i] = set.Origin[1] + rnd.Float64()*ext[1]
			p.Z[i] = set.Origin[2] + rnd.Float64()*ext[2]
		}
		p.W[i] = sp.Weight
	}

	return p
}
