package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Field positions within a tokenized Tycho-2 record (0-indexed).
const (
	FieldBT  = 17 // BT magnitude
	FieldVT  = 19 // VT magnitude
	FieldRA  = 24 // right ascension, degrees
	FieldDec = 25 // declination, degrees
)

// btToV is the photometric coefficient combining the BT and VT bands into a
// visual magnitude: V = VT - 0.090 * (BT - VT).
const btToV = 0.090

// SkipError reports why a record could not be decoded into a Star. Field
// names the requirement that failed ("RA", "Dec", or "magnitude"); Cause
// carries the per-field detail, including both sub-reasons when neither
// magnitude band was usable.
type SkipError struct {
	Field string
	Cause error
}

func (e *SkipError) Error() string {
	return e.Cause.Error()
}

func (e *SkipError) Unwrap() error {
	return e.Cause
}

// Decode converts one tokenized record into a Star.
//
// RA and Dec are required: a record too short to reach them, or with
// unparseable content at their positions, is skipped. The BT and VT
// magnitude bands are each independently optional; the record is only
// skipped for magnitude when neither band is usable. On failure the
// returned error is a *SkipError.
func Decode(rec Record) (Star, error) {
	ra, err := fieldValue(rec, FieldRA, "RA")
	if err != nil {
		return Star{}, &SkipError{Field: "RA", Cause: err}
	}

	dec, err := fieldValue(rec, FieldDec, "Dec")
	if err != nil {
		return Star{}, &SkipError{Field: "Dec", Cause: err}
	}

	mag, err := visualMagnitude(rec)
	if err != nil {
		return Star{}, err
	}

	return Star{RA: ra, Dec: dec, Mag: mag}, nil
}

// visualMagnitude derives the combined visual magnitude from the BT/VT
// photometric pair. With both bands present the standard conversion
// applies; with one band the record downgrades to that band's value alone.
func visualMagnitude(rec Record) (float64, error) {
	bt, btErr := fieldValue(rec, FieldBT, "BT magnitude")
	vt, vtErr := fieldValue(rec, FieldVT, "VT magnitude")

	switch {
	case btErr == nil && vtErr == nil:
		return vt - btToV*(bt-vt), nil
	case btErr == nil:
		return bt, nil
	case vtErr == nil:
		return vt, nil
	default:
		return 0, &SkipError{
			Field: "magnitude",
			Cause: fmt.Errorf("missing magnitude: %v; %v", btErr, vtErr),
		}
	}
}

// fieldValue extracts the numeric field at index from the record. A record
// too short to contain the index yields a "missing field" error; content
// with no numeric prefix yields a parse error.
func fieldValue(rec Record, index int, name string) (float64, error) {
	if index >= len(rec) {
		return 0, fmt.Errorf("missing field: %s", name)
	}
	v, err := parseLeading(rec[index])
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", name, err)
	}
	return v, nil
}

// parseLeading parses the longest leading numeric prefix of s after
// skipping leading whitespace, the way C strtod does: "12.3abc" parses as
// 12.3 and " 5.5 " as 5.5, while a field with no leading number at all
// fails. Catalog fields are space-padded and occasionally annotated, so
// whole-field parsing would reject rows the catalog format considers valid.
func parseLeading(s string) (float64, error) {
	s = strings.TrimLeft(s, " \t")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}

	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("no numeric prefix in %q", s)
	}

	// Optional exponent; backtrack if it has no digits ("1.5e" is 1.5).
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		mark := end
		end++
		if end < len(s) && (s[end] == '+' || s[end] == '-') {
			end++
		}
		expDigits := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			expDigits++
		}
		if expDigits == 0 {
			end = mark
		}
	}

	return strconv.ParseFloat(s[:end], 64)
}
