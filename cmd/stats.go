package cmd

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/starmap/internal/catalog"
	"github.com/papapumpkin/starmap/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats [FILE]",
	Short: "Show decode accounting and a magnitude histogram for a catalog",
	Long: `Parses the catalog and reports how many rows decoded, how many were
skipped and why, and how the derived visual magnitudes are distributed.
A read-only diagnostic over the same loader the renderer uses.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	source := cfg.Catalog
	if len(args) > 0 {
		source = args[0]
	}

	res, err := catalog.Load(source)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog: %s\n", source)
	fmt.Fprintf(out, "Rows:    %d\n", res.Rows)
	fmt.Fprintf(out, "Stars:   %d\n", len(res.Stars))
	fmt.Fprintf(out, "Skipped: %d\n", res.Skips.Total)

	if len(res.Skips.ByField) > 0 {
		fields := make([]string, 0, len(res.Skips.ByField))
		for field := range res.Skips.ByField {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(out, "  %-10s %d\n", field, res.Skips.ByField[field])
		}
	}

	if len(res.Stars) > 0 {
		fmt.Fprintln(out)
		printHistogram(cmd, res.Stars)
	}
	return nil
}

// Histogram bounds. Real stellar magnitudes live in roughly [-2, 30];
// the catalog format does not bound the field, so anything outside lands
// in the edge bins rather than sizing the chart from the raw spread.
const (
	histMinMag = -2
	histMaxMag = 30
)

// magBin returns the histogram bin for a magnitude, clamped to the edge
// bins.
func magBin(m float64) int {
	b := histMinMag
	if f := math.Floor(m); f > float64(histMinMag) {
		// Comparing before converting keeps huge or non-finite
		// magnitudes from overflowing the int conversion.
		if f >= float64(histMaxMag) {
			b = histMaxMag
		} else {
			b = int(f)
		}
	}
	return b
}

// printHistogram prints a per-integer-magnitude bar chart of the decoded
// stars, scaled to a fixed bar width.
func printHistogram(cmd *cobra.Command, stars []catalog.Star) {
	const barWidth = 50

	bins := make([]int, histMaxMag-histMinMag+1)
	lo, hi := histMaxMag, histMinMag
	for _, s := range stars {
		b := magBin(s.Mag)
		bins[b-histMinMag]++
		if b < lo {
			lo = b
		}
		if b > hi {
			hi = b
		}
	}
	peak := 0
	for _, n := range bins {
		if n > peak {
			peak = n
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Magnitude distribution:")
	for b := lo; b <= hi; b++ {
		n := bins[b-histMinMag]
		bar := strings.Repeat("#", n*barWidth/peak)
		fmt.Fprintf(out, "%14s %8d %s\n", binLabel(b), n, bar)
	}
}

// binLabel formats one bin's magnitude range; the edge bins are open.
func binLabel(b int) string {
	switch b {
	case histMinMag:
		return fmt.Sprintf("< %d", histMinMag+1)
	case histMaxMag:
		return fmt.Sprintf(">= %d", histMaxMag)
	default:
		return fmt.Sprintf("%d .. %d", b, b+1)
	}
}
