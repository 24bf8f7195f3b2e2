package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/starmap/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "View JSONL telemetry events for a render run",
	Long: `Reads and formats the JSONL telemetry file for the most recent or a
specified run.

Without --run, discovers the most recent telemetry file.
With --follow (-f), watches the file for new events (like tail -f).`,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("run", "", "run ID to view (default: most recent)")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, _ []string) error {
	runID, _ := cmd.Flags().GetString("run")
	follow, _ := cmd.Flags().GetBool("follow")

	path, err := resolveTelemetryPath(runID)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	// Print all existing events.
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		printEvent(cmd.OutOrStdout(), line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}

	if !follow {
		return nil
	}

	return tailFollow(cmd.OutOrStdout(), f, path)
}

// tailFollow watches the file for new data using fsnotify and prints new
// events.
func tailFollow(w io.Writer, f *os.File, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	reader := bufio.NewReader(f)
	for event := range watcher.Events {
		if event.Op&fsnotify.Write == 0 {
			continue
		}
		// Read all new lines available.
		for {
			line, err := reader.ReadString('\n')
			line = strings.TrimSpace(line)
			if line != "" {
				printEvent(w, line)
			}
			if err != nil {
				break
			}
		}
	}
	return nil
}

// printEvent decodes a JSONL line and prints one line per event: a
// timestamp, the kind, and a kind-specific summary of the data.
func printEvent(w io.Writer, line string) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}

	stamp := evt.Timestamp.Format(time.TimeOnly)
	if summary := eventSummary(evt); summary != "" {
		fmt.Fprintf(w, "[%s] %-15s %s\n", stamp, evt.Kind, summary)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", stamp, evt.Kind)
}

// eventSummary renders the data payload for the pipeline event kinds.
// Unknown kinds fall back to sorted key=value pairs so nothing is lost.
func eventSummary(evt telemetry.Event) string {
	m, _ := evt.Data.(map[string]any)

	switch evt.Kind {
	case telemetry.KindRunStart:
		s := fmt.Sprintf("%s window RA %g..%g Dec %g..%g mag<=%g canvas %.0fx%.0f",
			dataString(m, "source"),
			dataNum(m, "min_ra"), dataNum(m, "max_ra"),
			dataNum(m, "min_dec"), dataNum(m, "max_dec"),
			dataNum(m, "max_magnitude"),
			dataNum(m, "width"), dataNum(m, "height"))
		if cached, ok := m["from_cache"].(bool); ok && cached {
			s += " (cache)"
		}
		return s
	case telemetry.KindCatalogLoaded:
		return fmt.Sprintf("%.0f stars from %.0f rows, %.0f skipped (read %.0fms, parse %.0fms)",
			dataNum(m, "stars"), dataNum(m, "rows"), dataNum(m, "skipped"),
			dataNum(m, "read_ms"), dataNum(m, "parse_ms"))
	case telemetry.KindFilterDone:
		return fmt.Sprintf("kept %.0f stars in %.0fms",
			dataNum(m, "kept"), dataNum(m, "elapsed_ms"))
	case telemetry.KindRenderDone:
		return fmt.Sprintf("plotted %.0f stars on %.0fx%.0f in %.0fms",
			dataNum(m, "stars"), dataNum(m, "width"), dataNum(m, "height"),
			dataNum(m, "elapsed_ms"))
	case telemetry.KindImageWritten:
		return dataString(m, "path")
	case telemetry.KindRunDone:
		return ""
	}

	if m != nil {
		return formatDataMap(m)
	}
	if evt.Data != nil {
		data, _ := json.Marshal(evt.Data)
		return string(data)
	}
	return ""
}

// dataNum reads a numeric payload field. JSON numbers decode as float64.
func dataNum(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func dataString(m map[string]any, key string) string {
	s, ok := m[key].(string)
	if !ok {
		return "?"
	}
	return s
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}

// resolveTelemetryPath finds the JSONL file for the given run, or
// discovers the most recent one if runID is empty.
func resolveTelemetryPath(runID string) (string, error) {
	dir := telemetry.Dir

	if runID != "" {
		path := filepath.Join(dir, runID+".jsonl")
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("telemetry: no file for run %q: %w", runID, err)
		}
		return path, nil
	}

	// Discover the most recent telemetry file.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("telemetry: cannot read %s: %w", dir, err)
	}

	var jsonlFiles []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			jsonlFiles = append(jsonlFiles, e)
		}
	}
	if len(jsonlFiles) == 0 {
		return "", fmt.Errorf("telemetry: no JSONL files in %s", dir)
	}

	// Sort by modification time, most recent last.
	sort.Slice(jsonlFiles, func(i, j int) bool {
		fi, _ := jsonlFiles[i].Info()
		fj, _ := jsonlFiles[j].Info()
		return fi.ModTime().Before(fj.ModTime())
	})

	return filepath.Join(dir, jsonlFiles[len(jsonlFiles)-1].Name()), nil
}
