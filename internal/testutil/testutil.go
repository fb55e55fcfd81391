// Package testutil provides small construction helpers shared by this
// module's test files, in the same spirit as the pointer helpers real
// test suites in this space tend to hand-roll per package.
package testutil

import "math"

// PtrUint32 returns a pointer to v, for populating Config's optional
// uint32 fields (MapMaxRequiredKeys, MaxBuilders) from a test literal.
func PtrUint32(v uint32) *uint32 { return &v }

// FloatEquals reports whether a and b are close enough to treat as equal
// in a normalisation test, avoiding exact float comparison noise.
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
