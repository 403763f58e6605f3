package render

import "math"

// Linear maps a continuous domain onto a pixel range.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

func (s Linear) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

func (s Linear) Invert(px float64) float64 {
	if s.R1 == s.R0 {
		return s.D0
	}
	return s.D0 + (px-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Ticks returns roughly count round values inside the domain, using the
// 1-2-5 step progression.
func (s Linear) Ticks(count int) []float64 {
	lo, hi := math.Min(s.D0, s.D1), math.Max(s.D0, s.D1)
	if count <= 0 || lo == hi || math.IsNaN(lo) || math.IsNaN(hi) {
		return []float64{lo}
	}
	step := tickStep(lo, hi, count)
	i0, i1 := math.Ceil(lo/step), math.Floor(hi/step)
	ticks := make([]float64, 0, int(i1-i0)+1)
	for i := i0; i <= i1; i++ {
		ticks = append(ticks, cleanFloat(i*step))
	}
	return ticks
}

func tickStep(lo, hi float64, count int) float64 {
	raw := (hi - lo) / float64(count)
	power := math.Floor(math.Log10(raw))
	base := math.Pow(10, power)
	switch err := raw / base; {
	case err >= math.Sqrt(50):
		return 10 * base
	case err >= math.Sqrt(10):
		return 5 * base
	case err >= math.Sqrt(2):
		return 2 * base
	default:
		return base
	}
}

// cleanFloat strips accumulated floating point noise such as 0.30000000000000004.
func cleanFloat(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// Band divides a pixel range into n equal bands with proportional padding
// between and around them.
type Band struct {
	N       int
	R0, R1  float64
	Padding float64
}

func (b Band) step() float64 {
	if b.N == 0 {
		return 0
	}
	return (b.R1 - b.R0) / math.Max(1, float64(b.N)-b.Padding+2*b.Padding)
}

// Pos returns the left edge of band i, 0-based.
func (b Band) Pos(i int) float64 {
	step := b.step()
	start := b.R0 + ((b.R1-b.R0)-step*(float64(b.N)-b.Padding))/2
	return start + step*float64(i)
}

func (b Band) Width() float64 {
	return b.step() * (1 - b.Padding)
}
