package catalog

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// makeRecord builds a 26-field record with the given values at fixed
// positions. Unset positions are empty strings.
func makeRecord(fields map[int]string) Record {
	rec := make(Record, FieldDec+1)
	for i, v := range fields {
		rec[i] = v
	}
	return rec
}

// starRecord is a fully valid record: BT 5.5, VT 5.0, RA 10.0, Dec 20.0.
func starRecord() Record {
	return makeRecord(map[int]string{
		FieldBT:  "5.5",
		FieldVT:  "5.0",
		FieldRA:  "10.0",
		FieldDec: "20.0",
	})
}

func skipField(t *testing.T, err error) string {
	t.Helper()
	var skip *SkipError
	if !errors.As(err, &skip) {
		t.Fatalf("error %v is not a *SkipError", err)
	}
	return skip.Field
}

func TestDecode_BothBands(t *testing.T) {
	t.Parallel()

	star, err := Decode(starRecord())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// mag = VT - 0.090*(BT-VT) = 5.0 - 0.09*0.5 = 4.955
	if math.Abs(star.Mag-4.955) > 1e-9 {
		t.Errorf("Mag = %v, want 4.955", star.Mag)
	}
	if star.RA != 10.0 || star.Dec != 20.0 {
		t.Errorf("coordinates = (%v, %v), want (10, 20)", star.RA, star.Dec)
	}
}

func TestDecode_MagnitudeFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("only BT", func(t *testing.T) {
		t.Parallel()
		rec := starRecord()
		rec[FieldVT] = ""
		star, err := Decode(rec)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if star.Mag != 5.5 {
			t.Errorf("Mag = %v, want BT value 5.5", star.Mag)
		}
	})

	t.Run("only VT", func(t *testing.T) {
		t.Parallel()
		rec := starRecord()
		rec[FieldBT] = "junk"
		star, err := Decode(rec)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if star.Mag != 5.0 {
			t.Errorf("Mag = %v, want VT value 5.0", star.Mag)
		}
	})

	t.Run("neither band", func(t *testing.T) {
		t.Parallel()
		rec := starRecord()
		rec[FieldBT] = ""
		rec[FieldVT] = "n/a"
		_, err := Decode(rec)
		if field := skipField(t, err); field != "magnitude" {
			t.Errorf("skip field = %q, want %q", field, "magnitude")
		}
		// Both sub-reasons surface in the diagnostic.
		msg := err.Error()
		if !strings.Contains(msg, "BT magnitude") || !strings.Contains(msg, "VT magnitude") {
			t.Errorf("diagnostic %q should name both bands", msg)
		}
	})
}

func TestDecode_RequiredCoordinates(t *testing.T) {
	t.Parallel()

	t.Run("invalid RA skips despite valid rest", func(t *testing.T) {
		t.Parallel()
		rec := starRecord()
		rec[FieldRA] = "not-a-number"
		_, err := Decode(rec)
		if field := skipField(t, err); field != "RA" {
			t.Errorf("skip field = %q, want %q", field, "RA")
		}
	})

	t.Run("invalid Dec distinguished from RA", func(t *testing.T) {
		t.Parallel()
		rec := starRecord()
		rec[FieldDec] = ""
		_, err := Decode(rec)
		if field := skipField(t, err); field != "Dec" {
			t.Errorf("skip field = %q, want %q", field, "Dec")
		}
	})

	t.Run("record too short for RA", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(Record{"a", "b", "c"})
		if field := skipField(t, err); field != "RA" {
			t.Errorf("skip field = %q, want %q", field, "RA")
		}
		if !strings.Contains(err.Error(), "missing field") {
			t.Errorf("diagnostic %q should report a missing field", err)
		}
	})

	t.Run("record reaching RA but not Dec", func(t *testing.T) {
		t.Parallel()
		rec := starRecord()[:FieldDec] // 25 fields, Dec out of reach
		_, err := Decode(rec)
		if field := skipField(t, err); field != "Dec" {
			t.Errorf("skip field = %q, want %q", field, "Dec")
		}
	})
}

func TestParseLeading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "12.3", want: 12.3},
		{in: "12.3abc", want: 12.3}, // trailing garbage ignored, as strtod does
		{in: "  5.5  ", want: 5.5},
		{in: "-0.5", want: -0.5},
		{in: "+7", want: 7},
		{in: ".25", want: 0.25},
		{in: "1e3", want: 1000},
		{in: "1.5E-2", want: 0.015},
		{in: "1.5e", want: 1.5},  // dangling exponent backtracks
		{in: "1.5e+", want: 1.5}, // signed dangling exponent too
		{in: "3.", want: 3},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-", wantErr: true},
		{in: ".", wantErr: true},
		{in: "e5", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseLeading(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseLeading(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLeading(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLeading(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
