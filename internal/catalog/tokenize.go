package catalog

import (
	"runtime"
	"strings"
	"sync"
)

// Record is one tokenized catalog row: the raw line split on '|', with no
// trimming or unescaping. Empty fields are preserved as empty strings.
type Record []string

// Tokenize splits a single raw catalog line into its fields.
func Tokenize(line string) Record {
	return strings.Split(line, "|")
}

// TokenizeAll tokenizes every row, fanning the work out across CPUs. Each
// worker owns a contiguous chunk and writes results into pre-sized,
// index-addressed slots, so row i of the input always maps to record i of
// the output and no synchronization beyond the final join is needed.
func TokenizeAll(rows []string) []Record {
	records := make([]Record, len(rows))

	workers := runtime.NumCPU()
	if workers > len(rows) {
		workers = len(rows)
	}
	if workers <= 1 {
		for i, row := range rows {
			records[i] = Tokenize(row)
		}
		return records
	}

	chunk := (len(rows) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				records[i] = Tokenize(rows[i])
			}
		}(start, end)
	}
	wg.Wait()
	return records
}
