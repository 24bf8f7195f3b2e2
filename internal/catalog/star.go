// Package catalog reads the pipe-delimited Tycho-2 star catalog: raw rows
// are tokenized into fixed-position fields, each record is decoded into a
// Star with a visual magnitude derived from the BT/VT photometric pair, and
// rows that cannot yield a usable star are counted and reported rather than
// failing the batch.
package catalog

// Star is a single decoded catalog entry. Coordinates are equatorial
// degrees; Mag is the derived visual magnitude, where lower values mean
// brighter objects. A Star is a plain value and is never mutated after
// decoding.
type Star struct {
	RA  float64 // right ascension, degrees, expected [0,360)
	Dec float64 // declination, degrees, expected [-90,90]
	Mag float64 // visual magnitude
}
