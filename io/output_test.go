package io

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmsclark2/WarpX/field"
)

func readRows(t *testing.T, fname string) [][]float64 {
	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf(err.Error())
	}

	rows := [][]float64{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words := strings.Fields(line)
		row := make([]float64, len(words))
		for i, word := range words {
			x, err := strconv.ParseFloat(word, 64)
			if err != nil {
				t.Fatalf(err.Error())
			}
			row[i] = x
		}
		rows = append(rows, row)
	}
	return rows
}

func TestWriteProfile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "profile.txt")

	con := &DepositConfig{
		Geometry: "1D", Order: 1, CellsZ: 4, CellSizeZ: 0.5, OriginZ: 1,
	}
	set := con.Settings(-1)

	f := field.New(con.Bounds(), 2, [3]bool{true, false, false}, 1)
	for k := 0; k <= 4; k++ {
		f.Set(k, 0, 0, 0, float64(10+k))
	}

	if err := WriteProfile(fname, f, set); err != nil {
		t.Fatalf("WriteProfile failed: %s", err.Error())
	}

	rows := readRows(t, fname)
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d.", len(rows))
	}
	for k, row := range rows {
		if len(row) != 2 {
			t.Fatalf("Row %d has %d columns, not 2.", k, len(row))
		}
		assert.InDelta(t, 1+0.5*float64(k), row[0], 1e-6)
		assert.InDelta(t, float64(10+k), row[1], 1e-6)
	}
}

func TestWriteProfileAverages(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "profile.txt")

	con := &DepositConfig{
		Geometry: "2D", Order: 1,
		CellsX: 2, CellsZ: 2, CellSizeX: 1, CellSizeZ: 1,
	}
	set := con.Settings(1)

	f := field.New(con.Bounds(), 1, [3]bool{true, true, false}, 1)
	f.Set(0, 0, 0, 0, 3)
	f.Set(1, 0, 0, 0, 6)
	f.Set(2, 0, 0, 0, 9)

	if err := WriteProfile(fname, f, set); err != nil {
		t.Fatalf("WriteProfile failed: %s", err.Error())
	}

	rows := readRows(t, fname)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d.", len(rows))
	}
	assert.InDelta(t, 6.0, rows[0][1], 1e-6)
	assert.InDelta(t, 0.0, rows[1][1], 1e-6)
}
