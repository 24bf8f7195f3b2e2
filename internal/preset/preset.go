// Package preset loads named sky-region presets from a starmap.toml file,
// so commonly rendered windows (a constellation, a survey field) can be
// selected by name instead of four bound flags.
package preset

import (
	"errors"
	"fmt"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/starmap/internal/filter"
)

// ErrNoPresetFile is returned by Load when the preset file does not exist.
var ErrNoPresetFile = errors.New("preset file not found")

// Preset is one named sky region with an optional magnitude cut.
//
// A starmap.toml looks like:
//
//	[preset.orion]
//	min_ra = 75.0
//	max_ra = 90.0
//	min_dec = -10.0
//	max_dec = 20.0
//	max_magnitude = 8.0
type Preset struct {
	MinRA        float64  `toml:"min_ra"`
	MaxRA        float64  `toml:"max_ra"`
	MinDec       float64  `toml:"min_dec"`
	MaxDec       float64  `toml:"max_dec"`
	MaxMagnitude *float64 `toml:"max_magnitude"` // nil = keep configured cut
}

// Window returns the preset's region as a filter window.
func (p Preset) Window() filter.Window {
	return filter.Window{MinRA: p.MinRA, MaxRA: p.MaxRA, MinDec: p.MinDec, MaxDec: p.MaxDec}
}

// File is a parsed preset file.
type File struct {
	Presets map[string]Preset `toml:"preset"`
}

// Names returns the preset names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Presets))
	for name := range f.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named preset.
func (f *File) Lookup(name string) (Preset, error) {
	p, ok := f.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset: unknown preset %q (have %v)", name, f.Names())
	}
	return p, nil
}

// Load parses the preset file at path. A missing file yields
// ErrNoPresetFile so callers can treat it as "no presets configured".
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoPresetFile
		}
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("preset: parse %s: %w", path, err)
	}
	return &f, nil
}
