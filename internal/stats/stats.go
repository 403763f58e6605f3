// Package stats derives the numeric summary panel from the sample window.
package stats

import (
	"math"
	"strconv"

	"github.com/saveugene/pulsedash/internal/vitals"
)

// Placeholder is shown for a value that is absent.
const Placeholder = "--"

// Value is a number that may be absent. The zero Value is absent, which is
// distinct from a present zero.
type Value struct {
	v     float64
	valid bool
}

func Some(v float64) Value { return Value{v: v, valid: true} }

func (v Value) Get() (float64, bool) { return v.v, v.valid }

func (v Value) Valid() bool { return v.valid }

func (v Value) String() string {
	if !v.valid {
		return Placeholder
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// Aggregates are running statistics supplied by the upstream source. They may
// cover samples the local window has already evicted.
type Aggregates struct {
	Avg float64
	Min float64
	Max float64
}

// WellFormed reports whether a can be trusted over the local window.
func (a *Aggregates) WellFormed() bool {
	if a == nil {
		return false
	}
	for _, f := range []float64{a.Avg, a.Min, a.Max} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return a.Min <= a.Max
}

// Snapshot is the content of the summary panel.
type Snapshot struct {
	Current Value
	Average Value
	Min     Value
	Max     Value
}

// Compute derives the panel from the window. Well-formed upstream aggregates
// take precedence for average, min and max; Current always comes from the
// window.
func Compute(samples []vitals.Sample, agg *Aggregates) Snapshot {
	var s Snapshot
	if n := len(samples); n > 0 {
		s.Current = Some(samples[n-1].Value)
	}

	if agg.WellFormed() {
		s.Average = Some(roundHalfUp(agg.Avg))
		s.Min = Some(agg.Min)
		s.Max = Some(agg.Max)
		return s
	}
	if len(samples) == 0 {
		return s
	}

	lo, hi, sum := samples[0].Value, samples[0].Value, 0.0
	for _, smp := range samples {
		sum += smp.Value
		lo = math.Min(lo, smp.Value)
		hi = math.Max(hi, smp.Value)
	}
	s.Average = Some(roundHalfUp(sum / float64(len(samples))))
	s.Min = Some(lo)
	s.Max = Some(hi)
	return s
}

// roundHalfUp rounds .5 toward +Inf, so 88.5 becomes 89 and -0.5 becomes 0.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
