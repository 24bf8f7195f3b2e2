package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// SkipDiagnosticCap bounds how many individual skip diagnostics a
// SkipReport retains. Total and ByField stay exact beyond the cap; only
// the per-row detail is truncated.
const SkipDiagnosticCap = 10

// Skip records one dropped catalog row.
type Skip struct {
	Row    int // zero-based row index in the source
	Reason string
}

// SkipReport accounts for rows dropped during decoding.
type SkipReport struct {
	Total       int
	ByField     map[string]int // skips keyed by failed requirement
	Diagnostics []Skip         // first SkipDiagnosticCap skips
	Truncated   bool           // more rows were skipped than listed
}

func (r *SkipReport) note(row int, err error) {
	r.Total++

	var skip *SkipError
	if errors.As(err, &skip) {
		if r.ByField == nil {
			r.ByField = make(map[string]int)
		}
		r.ByField[skip.Field]++
	}

	if len(r.Diagnostics) < SkipDiagnosticCap {
		r.Diagnostics = append(r.Diagnostics, Skip{Row: row, Reason: err.Error()})
	} else {
		r.Truncated = true
	}
}

// Result is the outcome of loading a catalog: the decoded stars in source
// row order, skip accounting, and per-stage timings.
type Result struct {
	Stars []Star
	Skips SkipReport
	Rows  int // raw rows read, including skipped ones

	ReadTime  time.Duration // reading rows into memory
	ParseTime time.Duration // tokenizing and decoding
}

// Load reads the catalog file at path. The only hard failure is a source
// that cannot be opened or read; individual bad rows are dropped and
// accounted for in the result's SkipReport.
func Load(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses an entire catalog from r. The whole source is read into
// memory, tokenized in parallel (order-preserving), then decoded row by
// row in source order.
func Read(r io.Reader) (*Result, error) {
	start := time.Now()
	rows, err := readRows(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	readTime := time.Since(start)

	start = time.Now()
	records := TokenizeAll(rows)

	res := &Result{
		Stars:    make([]Star, 0, len(records)),
		Rows:     len(records),
		ReadTime: readTime,
	}
	for i, rec := range records {
		star, err := Decode(rec)
		if err != nil {
			res.Skips.note(i, err)
			continue
		}
		res.Stars = append(res.Stars, star)
	}
	res.ParseTime = time.Since(start)

	return res, nil
}

// readRows splits r into lines with no length limit: an over-long row is
// the decoder's problem (usually a skip), never a batch-fatal read error.
func readRows(r io.Reader) ([]string, error) {
	var rows []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			rows = append(rows, line)
		}
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
