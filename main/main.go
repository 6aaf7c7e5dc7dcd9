package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/gcfg.v1"

	"github.com/tmsclark2/WarpX"
	"github.com/tmsclark2/WarpX/balance"
	"github.com/tmsclark2/WarpX/field"
	"github.com/tmsclark2/WarpX/io"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	// The main function manages input sanitization and hands the checked
	// config to depositMain. The code tries to fail gracefully if the user
	// provides incorrect input.

	var (
		depositFile   string
		exampleConfig string
	)
	vars := map[string]*string{
		"Deposit":       &depositFile,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&depositFile, "Deposit", "",
		"Configuration file for [Deposit] mode.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file to stdout. The only accepted "+
			"argument is 'Deposit'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Deposit":
		wrap := io.DefaultDepositWrapper()
		err := gcfg.ReadFileInto(wrap, depositFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Deposit

		if !con.ValidGeometry() {
			log.Fatal("Invalid/non-existent 'Geometry' value.")
		} else if !con.ValidOrder() {
			log.Fatal("Invalid 'Order' value.")
		} else if !con.ValidCells() {
			log.Fatal("Invalid/non-existent 'Cells' values.")
		} else if !con.ValidCellSize() {
			log.Fatal("Invalid/non-existent 'CellSize' values.")
		} else if !con.ValidModes() {
			log.Fatal("Invalid 'Modes' value.")
		} else if !con.ValidGuardCells() {
			log.Fatal("'GuardCells' may not be smaller than 'Order'.")
		} else if !con.ValidStrategy() {
			log.Fatal("Invalid 'Strategy' value.")
		}

		depositMain(wrap)
	case "ExampleConfig":
		switch exampleConfig {
		case "Deposit":
			fmt.Println(io.ExampleDepositFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only " +
					"recognized argument is 'Deposit'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but warpx_cmd only accepts "+
				"one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func depositMain(wrap *io.DepositWrapper) {
	con := &wrap.Deposit

	fg := setupIO(con)
	defer fg.Close()

	species, err := wrap.SpeciesList()
	if err != nil {
		log.Fatal(err.Error())
	}
	if len(species) == 0 {
		log.Fatal("Must supply at least one [Species] section.")
	}

	domain := con.Bounds()
	desc, err := wrap.Boundary.Descriptor(con.Geom(), domain)
	if err != nil {
		log.Fatal(err.Error())
	}

	// Charge density is node centered on every resolved axis.
	nodal := [3]bool{}
	cells := 1
	for d := 0; d < con.Geom().Dims(); d++ {
		nodal[d] = true
		cells *= domain.Width[d]
	}
	set := con.Settings(species[0].Charge)
	rho := field.New(domain, con.Guard(), nodal, set.Comps())

	strategy, _ := balance.ParseStrategy(con.Strategy)
	cost := &balance.Cost{}
	ledger, err := balance.NewLedger(con.LedgerFile)
	if err != nil {
		log.Fatal(err.Error())
	}

	entries := []balance.Entry{}
	totalCharge, prevCost := 0.0, 0.0

	for i, sp := range species {
		set := con.Settings(sp.Charge)

		dep, err := warpx.NewDepositor(set, con.Workers)
		if err != nil {
			log.Fatal(err.Error())
		}
		dep.Log(true)
		if strategy != balance.Disabled {
			dep.SetCost(cost, strategy)
		}
		if con.Tiled {
			err := dep.EnableTiling(con.Tile(), con.TileGroup, con.TileBudget)
			if err != nil {
				log.Fatal(err.Error())
			}
		}

		p, err := io.NewBatch(sp, set, domain)
		if err != nil {
			log.Fatal(err.Error())
		}

		log.Printf(
			"Depositing %d particles of species '%s'.", p.Len(), sp.Name,
		)
		t0 := time.Now()
		dep.Deposit(rho, p)
		dt := time.Since(t0)
		log.Printf("Finished '%s' in %.4g seconds.", sp.Name, dt.Seconds())

		for j := range p.W {
			totalCharge += set.Charge * p.W[j]
		}

		if ledger != nil {
			v := cost.Value()
			entries = append(entries, balance.Entry{
				Step: 0, Patch: i, Strategy: strategy.String(),
				Particles: p.Len(), Cells: cells,
				Cost: v - prevCost, Seconds: dt.Seconds(),
			})
			prevCost = v
		}
	}

	gridCharge := floats.Sum(rho.Plane(0)) * set.CellVolume()
	log.Printf(
		"Total deposited charge: %.6g (batch total %.6g).",
		gridCharge, totalCharge,
	)

	if desc.AnyPEC() {
		desc.ApplyRho(rho)
		log.Printf("Folded guard charge at the conducting walls.")
	}

	if con.ValidOutput() {
		if err := io.WriteProfile(con.Output, rho, set); err != nil {
			log.Fatal(err.Error())
		}
		log.Printf("Wrote profile to '%s'.", con.Output)
	}

	if ledger != nil {
		if err := ledger.Write(entries); err != nil {
			log.Fatal(err.Error())
		}
		if err := ledger.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}

	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	log.Printf("Alloc: %5d MB, Sys: %5d MB", ms.Alloc>>20, ms.Sys>>20)
}

func setupIO(con *io.DepositConfig) *FileGroup {
	var err error
	fg := new(FileGroup)

	// Set up log file.
	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	// Set up profile file.
	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}
