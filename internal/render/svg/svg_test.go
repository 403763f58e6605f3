package svg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/vitals"
)

func TestEncodeChartFrame(t *testing.T) {
	snap := []vitals.Sample{{Seq: 0, Value: 72}, {Seq: 1, Value: 58}, {Seq: 2, Value: 130}}
	f := render.NewChartRenderer().Render(snap, render.Size{W: 600, H: 400}, render.NewViewport(), "")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))

	out := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<svg"))
	assert.Contains(t, out, "Real-Time Heart Rate")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
}

func TestEncodeIsDeterministic(t *testing.T) {
	snap := []vitals.Sample{{Seq: 0, Value: 70}, {Seq: 1, Value: 150}, {Seq: 2, Value: 65}}
	r := render.NewSummaryRenderer()

	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, r.Render(snap, render.Size{W: 320, H: 300}, nil, "")))
	require.NoError(t, Encode(&b, r.Render(snap, render.Size{W: 320, H: 300}, nil, "")))
	assert.Equal(t, a.String(), b.String())
}

func TestEncodeRejectsEmptySize(t *testing.T) {
	err := Encode(&bytes.Buffer{}, render.Frame{})
	assert.Error(t, err)
}
