package main

import (
	"fmt"
	"log"
	"os"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/phil-mansfield/table"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("Required file use: $ %s profile_file out_file", os.Args[0])
	}

	profFile, outFile := os.Args[1], os.Args[2]

	cols, err := table.ReadTable(profFile, []int{0, 1}, nil)
	if err != nil {
		log.Fatal(err.Error())
	}
	zs, rhos := cols[0], cols[1]
	if len(zs) == 0 {
		log.Fatalf("Profile file '%s' has no rows.", profFile)
	}

	plt.Figure()
	plt.Plot(zs, rhos, plt.LW(2))

	plt.Title(fmt.Sprintf("Deposited charge density, %d samples", len(zs)))
	plt.XLabel(`$z$`, plt.FontSize(16))
	plt.YLabel(`$\rho$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.Grid(plt.Axis("x"), plt.Which("both"))

	plt.SaveFig(outFile)
	plt.Execute()
}
