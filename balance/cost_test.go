package balance

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
)

func TestCostConcurrentAdd(t *testing.T) {
	workers, adds := 8, 10000
	c := &Cost{}

	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < adds; i++ {
				c.Add(0.5)
			}
		}()
	}
	wg.Wait()

	if got := c.Value(); got != float64(workers*adds)/2 {
		t.Errorf("Expected cost %g, got %g.", float64(workers*adds)/2, got)
	}

	c.Reset()
	if got := c.Value(); got != 0 {
		t.Errorf("Expected 0 after reset, got %g.", got)
	}
}

func TestParseStrategy(t *testing.T) {
	table := []struct {
		name string
		s    Strategy
		ok   bool
	}{
		{"Disabled", Disabled, true},
		{"", Disabled, true},
		{"heuristic", Heuristic, true},
		{"WallClock", WallClock, true},
		{"workerclock", WorkerClock, true},
		{"roundrobin", Disabled, false},
	}

	for i, test := range table {
		s, err := ParseStrategy(test.name)
		if test.ok && err != nil {
			t.Errorf("%d) Expected strategy for %q, got %v.", i, test.name, err)
		} else if !test.ok && err == nil {
			t.Errorf("%d) Expected error for %q, got none.", i, test.name)
		}
		if s != test.s {
			t.Errorf("%d) Expected %s for %q, got %s.", i, test.s, test.name, s)
		}
	}
}

func TestHeuristicCost(t *testing.T) {
	assert.InDelta(t, 100*0.1+1000*0.9, HeuristicCost(100, 1000), 1e-12)
	assert.InDelta(t, 0, HeuristicCost(0, 0), 1e-12)
}

func TestLedgerRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "costs.csv")
	l, err := NewLedger(fname)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	in := []Entry{
		{Step: 0, Patch: 0, Strategy: "Heuristic", Particles: 100,
			Cells: 4096, Cost: HeuristicCost(4096, 100)},
		{Step: 1, Patch: 0, Strategy: "Heuristic", Particles: 80,
			Cells: 4096, Cost: HeuristicCost(4096, 80)},
	}
	if err = l.Write(in[:1]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err = l.Write(in[1:]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err = l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(fname)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	out := []Entry{}
	if err = gocsv.UnmarshalFile(f, &out); err != nil {
		t.Fatalf("UnmarshalFile failed: %v", err)
	}
	assert.Equal(t, in, out)
}

func TestLedgerDisabled(t *testing.T) {
	l, err := NewLedger("")
	if err != nil {
		t.Fatalf("Expected disabled ledger, got %v.", err)
	}
	if l != nil {
		t.Fatalf("Expected nil ledger for empty name.")
	}

	// Nil receivers are safe everywhere.
	if err = l.Write([]Entry{{Step: 1}}); err != nil {
		t.Errorf("Nil write failed: %v", err)
	}
	if err = l.Close(); err != nil {
		t.Errorf("Nil close failed: %v", err)
	}
}
