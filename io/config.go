/*package io reads deposition run configuration files and writes the text
products of a run. Config files are gcfg/ini files with one [Deposit]
section, one optional [Boundary] section, and any number of named [Species]
sections, all read into a single DepositWrapper.
*/
package io

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tmsclark2/WarpX/balance"
	"github.com/tmsclark2/WarpX/boundary"
	"github.com/tmsclark2/WarpX/deposit"
	"github.com/tmsclark2/WarpX/geom"
	"github.com/tmsclark2/WarpX/shape"
)

const (
	ExampleDepositFile = `[Deposit]

#######################
# Required Parameters #
#######################

# Geometry selects the coordinate system of the run. It must be one of
# [ 1D | 2D | RZ | 3D ]. 1D runs resolve z, 2D runs resolve x and z, and RZ
# runs resolve r and z with particle x and y folded into radius and angle.
Geometry = 3D

# Shape factor order of the deposited particles. Orders 0 through 3 are
# supported.
Order = 2

# Cells across each resolved axis of the domain. Axes the geometry does not
# resolve are ignored, so a 1D run only needs CellsZ. RZ runs read the
# radial cell count from CellsX.
CellsX = 64
CellsY = 64
CellsZ = 64

# Physical size of one cell along each resolved axis. RZ runs read the
# radial cell size from CellSizeX.
CellSizeX = 0.5e-6
CellSizeY = 0.5e-6
CellSizeZ = 0.5e-6

#######################
# Optional Parameters #
#######################

# Physical coordinate of the grid node at index zero on each resolved axis.
# RZ runs should leave OriginX at 0 so the radial axis starts on the beam
# axis.
# OriginX = 0
# OriginY = 0
# OriginZ = 0

# Number of azimuthal modes kept by RZ runs. Mode 0 is always deposited and
# every further mode adds a cosine and a sine component plane.
# Modes = 2

# Guard cells around the valid box. A stencil of order n reaches n cells
# past a wall particle, so this may not be smaller than Order. When unset,
# Order + 1 cells are used.
# GuardCells = 3

# Size of the worker pool. When unset, every logical core gets a worker.
# Workers = 8

# Tiled deposition bins particles by tile and scatters each tile into a
# private buffer, trading a merge pass for less contention on the shared
# grid. Usually worth it above a few thousand particles per worker.
# Tiled = true

# Tile edge in cells along each resolved axis. Ignored unless Tiled is set.
# TileX = 8
# TileY = 8
# TileZ = 8

# The number of workers sharing one tile, and the cap in bytes on one tile
# buffer. Ignored unless Tiled is set.
# TileGroup = 1
# TileBudget = 49152

# Cost accounting for balancing patches across ranks. Must be one of
# [ Disabled | Heuristic | WallClock | WorkerClock ].
# Strategy = Heuristic

# CSV file the per-species cost entries are written to.
# LedgerFile = costs.csv

# Text file the deposited charge density profile is written to, one row per
# sample along the z axis.
# Output = rho_profile.txt

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out

[Boundary]

# Field and particle treatment of each domain wall. Fields walls must be one
# of [ None | PEC ], particle walls one of [ Absorbing | Reflecting ], and
# both default to the first option. Setting a wall on an axis the geometry
# does not resolve is an error. RZ runs read the radial pair from the X
# names and may not put PEC on FieldLoX, because the low radial edge is the
# beam axis rather than a wall.
FieldLoZ = PEC
FieldHiZ = PEC
# FieldLoX = None
# FieldHiX = None
# FieldLoY = None
# FieldHiY = None

ParticleLoZ = Reflecting
ParticleHiZ = Reflecting
# ParticleLoX = Absorbing
# ParticleHiX = Absorbing
# ParticleLoY = Absorbing
# ParticleHiY = Absorbing

[Species "electrons"]

#######################
# Required Parameters #
#######################

# Charge of one physical particle of the species, in any unit. Every species
# in the file is deposited onto the same charge density grid.
Charge = -1.0

# Number of macro-particles placed uniformly inside the domain. Not needed
# when Table is set.
Particles = 100000

#######################
# Optional Parameters #
#######################

# Statistical weight of every synthetic macro-particle.
# Weight = 1.0

# Seed of the synthetic placement. Two runs with the same seed place the
# same particles.
# Seed = 42

# Text table with one row per particle holding columns x y z w. When set,
# Particles, Weight, and Seed are ignored.
# Table = path/to/particles.txt

[Species "ions"]

Charge = 1.0
Particles = 100000`
)

type DepositConfig struct {
	// Required
	Geometry                        string
	Order                           int
	CellsX, CellsY, CellsZ          int
	CellSizeX, CellSizeY, CellSizeZ float64

	// Optional
	OriginX, OriginY, OriginZ float64
	Modes                     int
	GuardCells                int
	Workers                   int

	Tiled               bool
	TileX, TileY, TileZ int
	TileGroup           int
	TileBudget          int

	Strategy   string
	LedgerFile string

	Output               string
	LogFile, ProfileFile string
}

type BoundaryConfig struct {
	// Optional
	FieldLoX, FieldHiX string
	FieldLoY, FieldHiY string
	FieldLoZ, FieldHiZ string

	ParticleLoX, ParticleHiX string
	ParticleLoY, ParticleHiY string
	ParticleLoZ, ParticleHiZ string
}

type SpeciesConfig struct {
	// Required
	Charge    float64
	Particles int

	// Optional
	Weight float64
	Seed   int64
	Table  string

	// Optional, "undocumented"
	Name string
}

type DepositWrapper struct {
	Deposit  DepositConfig
	Boundary BoundaryConfig
	Species  map[string]*SpeciesConfig
}

func DefaultDepositWrapper() *DepositWrapper {
	con := DepositConfig{}
	con.Modes = 1
	con.TileX, con.TileY, con.TileZ = 8, 8, 8
	con.TileGroup = 1
	return &DepositWrapper{Deposit: con}
}

func (con *DepositConfig) ValidGeometry() bool {
	_, err := deposit.ParseGeometry(con.Geometry)
	return err == nil
}

func (con *DepositConfig) ValidOrder() bool {
	return shape.Order(con.Order).Valid()
}

func (con *DepositConfig) ValidCells() bool {
	counts := [3]int{con.CellsX, con.CellsY, con.CellsZ}
	for _, slot := range gridAxes(con.Geom()) {
		if slot != -1 && counts[slot] < 1 {
			return false
		}
	}
	return true
}

func (con *DepositConfig) ValidCellSize() bool {
	sizes := [3]float64{con.CellSizeX, con.CellSizeY, con.CellSizeZ}
	for _, slot := range gridAxes(con.Geom()) {
		if slot != -1 && sizes[slot] <= 0 {
			return false
		}
	}
	return true
}

func (con *DepositConfig) ValidModes() bool {
	if con.Geom() == deposit.CylRZ {
		return con.Modes >= 1
	}
	return con.Modes <= 1
}

func (con *DepositConfig) ValidGuardCells() bool {
	return con.GuardCells == 0 || con.GuardCells >= con.Order
}

func (con *DepositConfig) ValidStrategy() bool {
	_, err := balance.ParseStrategy(con.Strategy)
	return err == nil
}

func (con *DepositConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *DepositConfig) ValidLedgerFile() bool {
	return con.LedgerFile != ""
}
func (con *DepositConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *DepositConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// gridAxes gives the x, y, z config slot feeding each grid axis under the
// compressed axis convention. Unresolved axes read slot -1.
func gridAxes(g deposit.Geometry) [3]int {
	switch g {
	case deposit.Cart1D:
		return [3]int{2, -1, -1}
	case deposit.Cart2D, deposit.CylRZ:
		return [3]int{0, 2, -1}
	}
	return [3]int{0, 1, 2}
}

// Geom returns the parsed geometry. Callers check ValidGeometry first.
func (con *DepositConfig) Geom() deposit.Geometry {
	g, _ := deposit.ParseGeometry(con.Geometry)
	return g
}

// Guard returns the guard width of the run, Order + 1 when the file leaves
// GuardCells unset.
func (con *DepositConfig) Guard() int {
	if con.GuardCells > 0 {
		return con.GuardCells
	}
	return con.Order + 1
}

// Settings assembles the kernel settings of a species with the given
// charge.
func (con *DepositConfig) Settings(charge float64) deposit.Settings {
	set := deposit.Settings{
		Geom:   con.Geom(),
		Order:  shape.Order(con.Order),
		Charge: charge,
		Modes:  con.Modes,
	}

	sizes := [3]float64{con.CellSizeX, con.CellSizeY, con.CellSizeZ}
	origins := [3]float64{con.OriginX, con.OriginY, con.OriginZ}
	for d, slot := range gridAxes(set.Geom) {
		if slot == -1 {
			continue
		}
		set.CellSize[d] = sizes[slot]
		set.Origin[d] = origins[slot]
	}

	return set
}

// Bounds returns the valid cell box of the whole domain, anchored at cell
// zero.
func (con *DepositConfig) Bounds() geom.CellBounds {
	counts := [3]int{con.CellsX, con.CellsY, con.CellsZ}
	cb := geom.CellBounds{Width: [3]int{1, 1, 1}}
	for d, slot := range gridAxes(con.Geom()) {
		if slot != -1 {
			cb.Width[d] = counts[slot]
		}
	}
	return cb
}

// Tile returns the configured tile edges in grid axis order.
func (con *DepositConfig) Tile() [3]int {
	tile := [3]int{1, 1, 1}
	sizes := [3]int{con.TileX, con.TileY, con.TileZ}
	for d, slot := range gridAxes(con.Geom()) {
		if slot != -1 {
			tile[d] = sizes[slot]
		}
	}
	return tile
}

// Descriptor assembles the boundary treatment of the whole domain. Every
// wall name is checked, and walls on axes the geometry does not resolve are
// rejected.
func (con *BoundaryConfig) Descriptor(
	g deposit.Geometry, domain geom.CellBounds,
) (*boundary.Descriptor, error) {
	d := &boundary.Descriptor{
		Dims:   g.Dims(),
		RZ:     g == deposit.CylRZ,
		Domain: domain,
	}

	fields := [3][2]string{
		{con.FieldLoX, con.FieldHiX},
		{con.FieldLoY, con.FieldHiY},
		{con.FieldLoZ, con.FieldHiZ},
	}
	parts := [3][2]string{
		{con.ParticleLoX, con.ParticleHiX},
		{con.ParticleLoY, con.ParticleHiY},
		{con.ParticleLoZ, con.ParticleHiZ},
	}
	slotNames := [3]string{"X", "Y", "Z"}
	sideNames := [2]string{"Lo", "Hi"}

	used := [3]bool{}
	for dim, slot := range gridAxes(g) {
		if slot == -1 {
			continue
		}
		used[slot] = true
		for side := 0; side < 2; side++ {
			fk, err := boundary.ParseFieldKind(fields[slot][side])
			if err != nil {
				return nil, fmt.Errorf("Field%s%s: %s",
					sideNames[side], slotNames[slot], err.Error())
			}
			pk, err := boundary.ParseParticleKind(parts[slot][side])
			if err != nil {
				return nil, fmt.Errorf("Particle%s%s: %s",
					sideNames[side], slotNames[slot], err.Error())
			}
			d.Field[dim][side] = fk
			d.Particle[dim][side] = pk
		}
	}

	for slot := 0; slot < 3; slot++ {
		if used[slot] {
			continue
		}
		for side := 0; side < 2; side++ {
			if fields[slot][side] != "" || parts[slot][side] != "" {
				return nil, fmt.Errorf(
					"%s runs have no %s axis, but a %s%s wall is set.",
					g, strings.ToLower(slotNames[slot]),
					sideNames[side], slotNames[slot],
				)
			}
		}
	}

	if err := d.Check(); err != nil {
		return nil, err
	}
	return d, nil
}

func (sp *SpeciesConfig) CheckInit(name string) error {
	if sp.Charge == 0 {
		return fmt.Errorf("Need a nonzero 'Charge' for Species '%s'.", name)
	}

	if sp.Table == "" && sp.Particles <= 0 {
		return fmt.Errorf(
			"Need a positive 'Particles' count or a 'Table' file for "+
				"Species '%s'.", name,
		)
	}

	if sp.Weight == 0 {
		sp.Weight = 1
	} else if sp.Weight < 0 {
		return fmt.Errorf(
			"Species '%s' given a negative weight, %g.", name, sp.Weight,
		)
	}

	sp.Name = name
	return nil
}

// SpeciesList checks every species section and returns them sorted by name,
// so runs do not depend on map iteration order.
func (wrap *DepositWrapper) SpeciesList() ([]*SpeciesConfig, error) {
	names := make([]string, 0, len(wrap.Species))
	for name := range wrap.Species {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*SpeciesConfig, len(names))
	for i, name := range names {
		sp := wrap.Species[name]
		if err := sp.CheckInit(name); err != nil {
			return nil, err
		}
		out[i] = sp
	}
	return out, nil
}
