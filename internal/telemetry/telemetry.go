// Package telemetry provides a JSONL event stream for recording pipeline
// stages during a render run. Each stage transition is recorded as a
// structured JSON event tagged with a run ID, making runs auditable and
// comparable across catalog revisions.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dir is the default directory for telemetry files, relative to the
// working directory.
const Dir = ".starmap/telemetry"

// Event kinds identify the type of telemetry event.
const (
	KindRunStart      = "run_start"
	KindCatalogLoaded = "catalog_loaded"
	KindFilterDone    = "filter_done"
	KindRenderDone    = "render_done"
	KindImageWritten  = "image_written"
	KindRunDone       = "run_done"
)

// Event represents a single telemetry record. Each event carries a
// timestamp, a kind tag, the owning run ID, and arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for
// concurrent use by multiple goroutines. A nil *Emitter is a valid no-op
// emitter.
type Emitter struct {
	runID string
	file  *os.File
	enc   *json.Encoder
	mu    sync.Mutex
}

// NewRun creates an Emitter for a fresh run: a new run ID is generated and
// events are written to <dir>/<run-id>.jsonl, creating dir if needed.
func NewRun(dir string) (*Emitter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create %s: %w", dir, err)
	}
	runID := uuid.NewString()
	return NewEmitter(filepath.Join(dir, runID+".jsonl"), runID)
}

// NewEmitter creates an Emitter writing JSONL events to the file at path.
// The file is created if it does not exist, or appended to if it does.
func NewEmitter(path, runID string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		runID: runID,
		file:  f,
		enc:   json.NewEncoder(f),
	}, nil
}

// RunID returns this emitter's run ID, or empty for a nil Emitter.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// Emit writes a single event of the given kind, stamped with the current
// time and the emitter's run ID. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(kind string, data any) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	evt := Event{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		RunID:     e.runID,
		Data:      data,
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
