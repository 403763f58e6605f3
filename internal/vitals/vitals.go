// Package vitals holds the heart-rate sample type and the safe range shared by
// the alert banner and both chart classifications.
package vitals

const (
	// SafeMin and SafeMax bound the inclusive safe heart-rate range in bpm.
	SafeMin = 60.0
	SafeMax = 120.0

	// MaxPoints is the number of recent samples kept for the live window.
	MaxPoints = 60

	Unit = "bpm"
)

// Sample is one reading. Seq is the arrival counter used as the x ordinate.
type Sample struct {
	Seq   int
	Value float64
}

// OutOfRange reports whether v lies outside [SafeMin, SafeMax].
func OutOfRange(v float64) bool {
	return v < SafeMin || v > SafeMax
}
