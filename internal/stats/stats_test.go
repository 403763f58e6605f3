package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saveugene/pulsedash/internal/vitals"
)

func window(values ...float64) []vitals.Sample {
	out := make([]vitals.Sample, len(values))
	for i, v := range values {
		out[i] = vitals.Sample{Seq: i, Value: v}
	}
	return out
}

func TestComputeEmptyIsAbsent(t *testing.T) {
	s := Compute(nil, nil)

	for name, v := range map[string]Value{
		"current": s.Current, "average": s.Average, "min": s.Min, "max": s.Max,
	} {
		assert.False(t, v.Valid(), name)
		assert.Equal(t, Placeholder, v.String(), name)
	}
}

func TestComputeLocalFallback(t *testing.T) {
	s := Compute(window(72, 58, 130, 95), nil)

	assert.Equal(t, "95", s.Current.String())
	assert.Equal(t, "58", s.Min.String())
	assert.Equal(t, "130", s.Max.String())
	assert.Equal(t, "89", s.Average.String(), "88.75 rounds to 89")
}

func TestComputeRoundsHalfUp(t *testing.T) {
	s := Compute(window(88, 89), nil)
	avg, ok := s.Average.Get()
	assert.True(t, ok)
	assert.Equal(t, 89.0, avg)
}

func TestComputePrefersUpstreamAggregates(t *testing.T) {
	agg := &Aggregates{Avg: 80.4, Min: 41, Max: 150}
	s := Compute(window(72, 95), agg)

	assert.Equal(t, "95", s.Current.String(), "current ignores aggregates")
	assert.Equal(t, "80", s.Average.String())
	assert.Equal(t, "41", s.Min.String())
	assert.Equal(t, "150", s.Max.String())
}

func TestComputeAggregatesWithEmptyWindow(t *testing.T) {
	s := Compute(nil, &Aggregates{Avg: 70, Min: 60, Max: 80})

	assert.False(t, s.Current.Valid())
	assert.Equal(t, "70", s.Average.String())
}

func TestComputeIgnoresMalformedAggregates(t *testing.T) {
	tests := []struct {
		name string
		agg  *Aggregates
	}{
		{"nan average", &Aggregates{Avg: math.NaN(), Min: 1, Max: 2}},
		{"infinite max", &Aggregates{Avg: 1, Min: 1, Max: math.Inf(1)}},
		{"min above max", &Aggregates{Avg: 1, Min: 9, Max: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute(window(70, 80), tt.agg)
			assert.Equal(t, "75", s.Average.String())
			assert.Equal(t, "70", s.Min.String())
			assert.Equal(t, "80", s.Max.String())
		})
	}
}

func TestPresentZeroIsNotAbsent(t *testing.T) {
	v := Some(0)
	assert.True(t, v.Valid())
	assert.Equal(t, "0", v.String())
}
