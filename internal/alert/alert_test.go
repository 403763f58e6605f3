package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBoundaries(t *testing.T) {
	tests := []struct {
		value  float64
		active bool
	}{
		{59, true},
		{59.9, true},
		{60, false},
		{90, false},
		{120, false},
		{120.1, true},
		{121, true},
		{0, true},
	}
	for _, tt := range tests {
		got := Evaluate(tt.value)
		assert.Equal(t, tt.active, got.Active, "value %v", tt.value)
		if tt.active {
			assert.Equal(t, Message, got.Message)
		} else {
			assert.Empty(t, got.Message)
		}
	}
}

func TestEvaluateScenarioToggles(t *testing.T) {
	var got []bool
	for _, v := range []float64{72, 58, 130, 95} {
		got = append(got, Evaluate(v).Active)
	}
	assert.Equal(t, []bool{false, true, true, false}, got)
}

func TestNotice(t *testing.T) {
	s := Notice("WebSocket error!")
	assert.True(t, s.Active)
	assert.Equal(t, "WebSocket error!", s.Message)
}
