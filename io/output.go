package io

import (
	"fmt"
	"os"

	"github.com/tmsclark2/WarpX/deposit"
	"github.com/tmsclark2/WarpX/field"
)

// WriteProfile writes the deposited field as a text table with one row per
// sample along the z axis: column 0 holds the physical z coordinate and
// every component plane adds a column holding its average over the
// transverse valid samples. The layout is what the plotting scripts read
// back with table.ReadTable.
func WriteProfile(fname string, f *field.Field, set deposit.Settings) error {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer file.Close()

	var lo, hi [3]int
	for d := 0; d < 3; d++ {
		lo[d], hi[d] = f.Valid.Origin[d], f.ValidHi(d)
	}

	az := set.Geom.Dims() - 1
	ax0, ax1 := (az+1)%3, (az+2)%3
	shift := 0.5 * float64(1-f.NodalBit(az))

	fmt.Fprintf(file, "# %s deposition, %d component planes.\n",
		set.Geom, f.Comps)
	fmt.Fprintf(file, "# Column 0 is z, later columns are plane averages.\n")

	for k := lo[az]; k <= hi[az]; k++ {
		pos := set.Origin[az] + (float64(k)+shift)*set.CellSize[az]
		fmt.Fprintf(file, "%12.7g", pos)

		var i [3]int
		i[az] = k
		for c := 0; c < f.Comps; c++ {
			sum, n := 0.0, 0
			for u := lo[ax0]; u <= hi[ax0]; u++ {
				for v := lo[ax1]; v <= hi[ax1]; v++ {
					i[ax0], i[ax1] = u, v
					sum += f.At(i[0], i[1], i[2], c)
					n++
				}
			}
			fmt.Fprintf(file, " %12.7g", sum/float64(n))
		}
		fmt.Fprintln(file)
	}

	return nil
}
