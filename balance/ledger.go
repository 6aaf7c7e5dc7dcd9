package balance

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Entry is one deposition pass in the cost ledger.
type Entry struct {
	Step      int     `csv:"step"`
	Patch     int     `csv:"patch"`
	Strategy  string  `csv:"strategy"`
	Particles int     `csv:"particles"`
	Cells     int     `csv:"cells"`
	Cost      float64 `csv:"cost"`
	Seconds   float64 `csv:"seconds"`
}

// Ledger appends deposition cost records to a CSV file. A nil Ledger
// swallows writes, so callers log unconditionally and disable output by
// passing an empty file name.
type Ledger struct {
	file          *os.File
	headerWritten bool
}

// NewLedger creates the ledger file, truncating an existing one. An empty
// name disables the ledger by returning nil, nil.
func NewLedger(fname string) (*Ledger, error) {
	if fname == "" {
		return nil, nil
	}

	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("creating cost ledger: %w", err)
	}
	return &Ledger{file: f}, nil
}

// Write appends entries to the ledger. The first write carries the CSV
// header, later ones only rows.
func (l *Ledger) Write(entries []Entry) error {
	if l == nil || len(entries) == 0 {
		return nil
	}

	if !l.headerWritten {
		if err := gocsv.Marshal(entries, l.file); err != nil {
			return fmt.Errorf("writing cost ledger: %w", err)
		}
		l.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(entries, l.file); err != nil {
			return fmt.Errorf("writing cost ledger: %w", err)
		}
	}

	return nil
}

// Close flushes and closes the ledger file.
func (l *Ledger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
