package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveugene/pulsedash/internal/vitals"
)

func pushValues(b *Buffer, values ...float64) {
	for _, v := range values {
		b.Push(vitals.Sample{Seq: b.Len(), Value: v})
	}
}

func values(samples []vitals.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

func TestPushKeepsLengthWithinCapacity(t *testing.T) {
	b := New(5)
	for i := 0; i < 23; i++ {
		s := vitals.Sample{Seq: i, Value: float64(70 + i)}
		b.Push(s)
		require.LessOrEqual(t, b.Len(), b.Cap())
		latest, ok := b.Latest()
		require.True(t, ok)
		assert.Equal(t, s, latest)
	}
}

func TestPushEvictsOldestFirst(t *testing.T) {
	b := New(vitals.MaxPoints)
	for i := 1; i <= 61; i++ {
		b.Push(vitals.Sample{Seq: i - 1, Value: float64(i)})
	}

	snap := b.Snapshot()
	require.Len(t, snap, vitals.MaxPoints)
	assert.Equal(t, 2.0, snap[0].Value)
	assert.Equal(t, 61.0, snap[len(snap)-1].Value)
	for i := 1; i < len(snap); i++ {
		assert.Less(t, snap[i-1].Seq, snap[i].Seq, "arrival order must be preserved")
	}
}

func TestPushOverflowKeepsLastCapacitySamples(t *testing.T) {
	for _, k := range []int{1, 2, 7, 60} {
		b := New(10)
		for i := 0; i < 10+k; i++ {
			b.Push(vitals.Sample{Seq: i, Value: float64(i)})
		}
		want := make([]float64, 10)
		for i := range want {
			want[i] = float64(k + i)
		}
		assert.Equal(t, want, values(b.Snapshot()), "k=%d", k)
	}
}

func TestSmallScenario(t *testing.T) {
	b := New(vitals.MaxPoints)
	pushValues(b, 72, 58, 130, 95)
	assert.Equal(t, []float64{72, 58, 130, 95}, values(b.Snapshot()))
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New(3)
	pushValues(b, 80, 81)
	snap := b.Snapshot()
	snap[0].Value = 999
	pushValues(b, 82, 83)

	assert.Equal(t, 999.0, snap[0].Value)
	assert.Equal(t, []float64{81, 82, 83}, values(b.Snapshot()))
}

func TestClear(t *testing.T) {
	b := New(3)
	pushValues(b, 80, 81, 82)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())
	_, ok := b.Latest()
	assert.False(t, ok)
	assert.Equal(t, 3, b.Cap())
}

func TestNewFallsBackToDefaultCapacity(t *testing.T) {
	assert.Equal(t, vitals.MaxPoints, New(0).Cap())
	assert.Equal(t, vitals.MaxPoints, New(-4).Cap())
}
