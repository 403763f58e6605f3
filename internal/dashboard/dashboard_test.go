package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveugene/pulsedash/internal/alert"
	"github.com/saveugene/pulsedash/internal/metrics"
	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/stats"
	"github.com/saveugene/pulsedash/internal/transport"
)

// chanSource hands out a fresh channel per Stream call and records the
// context so tests can observe cancellation.
type chanSource struct {
	ch    chan transport.Event
	ctx   context.Context
	err   error
	opens int
}

func (s *chanSource) Stream(ctx context.Context) (<-chan transport.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.opens++
	s.ctx = ctx
	s.ch = make(chan transport.Event, 16)
	return s.ch, nil
}

type controls struct{ start, stop, export bool }

func (c *controls) SetEnabled(start, stop, export bool) {
	c.start, c.stop, c.export = start, stop, export
}

type fixture struct {
	ctrl    *Controller
	src     *chanSource
	surface *Snapshot
	btn     *controls
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		src:     &chanSource{},
		surface: NewSnapshot(render.Size{W: 600, H: 400}, render.Size{W: 320, H: 300}),
		btn:     &controls{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.ctrl = New(Options{
		Source:   f.src,
		Surface:  f.surface,
		Controls: f.btn,
		Metrics:  f.metrics,
	})
	return f
}

func (f *fixture) feed(values ...float64) {
	for _, v := range values {
		f.ctrl.OnSample(len(f.ctrl.records), v, nil)
	}
}

func float(v float64) *float64 { return &v }

func TestInitialStateIsIdleAndEmpty(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.ctrl.IsActive())
	assert.Nil(t, f.ctrl.Inbound())
	assert.Equal(t, controls{start: true}, *f.btn)
	assert.True(t, f.surface.Empty)
	assert.Equal(t, "--", f.surface.Stats.Current.String())
	assert.Equal(t, "--", f.surface.Stats.Average.String())
}

func TestSessionScenario(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	assert.True(t, f.ctrl.IsActive())
	assert.Equal(t, controls{stop: true}, *f.btn)
	assert.NotEmpty(t, f.ctrl.Session())

	steps := []struct {
		value float64
		alert bool
	}{
		{72, false},
		{58, true},
		{130, true},
		{95, false},
	}
	for i, step := range steps {
		f.ctrl.OnSample(i, step.value, nil)
		assert.Equal(t, step.alert, f.surface.Alert.Active, "sample %d", i)
		assert.Equal(t, i, f.surface.Timer)
	}

	st := f.surface.Stats
	assert.Equal(t, "95", st.Current.String())
	assert.Equal(t, "89", st.Average.String())
	assert.Equal(t, "58", st.Min.String())
	assert.Equal(t, "130", st.Max.String())
	assert.False(t, f.surface.Empty)

	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.SamplesAccepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.OutOfRange))
}

func TestRefreshOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(80)
	assert.Equal(t, []string{
		"draw:chart", "draw:bars", "empty", "stats", "timer", "alert",
	}, f.surface.Order)
}

func TestWindowEvictsButExportKeepsAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	for i := 0; i < 61; i++ {
		f.ctrl.OnSample(i, float64(70+i%10), nil)
	}
	st := f.ctrl.State()
	require.Len(t, st.Window, 60)
	assert.Equal(t, 1, st.Window[0].Seq)
	assert.Equal(t, 60, st.Window[59].Seq)
	assert.Equal(t, 61, st.Records)

	f.ctrl.Stop()
	records, err := f.ctrl.Records()
	require.NoError(t, err)
	assert.Len(t, records, 61)
	assert.Equal(t, Record{Time: 0, Value: 70}, records[0])
}

func TestUpstreamAggregatesWin(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.ctrl.OnSample(0, 80, &stats.Aggregates{Avg: 77.5, Min: 50, Max: 140})
	assert.Equal(t, "80", f.surface.Stats.Current.String())
	assert.Equal(t, "78", f.surface.Stats.Average.String())
	assert.Equal(t, "50", f.surface.Stats.Min.String())

	f.ctrl.OnSample(1, 90, &stats.Aggregates{Avg: 1, Min: 10, Max: 5})
	assert.Equal(t, "85", f.surface.Stats.Average.String(), "malformed aggregates fall back to the window")
}

func TestBadAggregatesKeepTheReading(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(80)

	msg, err := transport.Decode([]byte(`{"time":1,"observation":{"value":90},"aggregates":{"min":60,"max":90,"avg":"n/a"}}`))
	require.NoError(t, err)
	f.ctrl.OnMessage(transport.Event{Kind: transport.KindMessage, Message: msg})

	assert.Equal(t, 2, f.ctrl.State().Records)
	assert.Equal(t, "90", f.surface.Stats.Current.String())
	assert.Equal(t, "85", f.surface.Stats.Average.String())
	assert.Equal(t, "80", f.surface.Stats.Min.String())
}

func TestStopKeepsWindowAndEnablesExport(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(72, 130)
	require.True(t, f.surface.Alert.Active)

	f.ctrl.Stop()
	assert.False(t, f.ctrl.IsActive())
	assert.Nil(t, f.ctrl.Inbound())
	assert.Error(t, f.src.ctx.Err(), "stop cancels the stream")
	assert.Equal(t, controls{start: true, export: true}, *f.btn)
	assert.False(t, f.surface.Alert.Active)
	assert.Len(t, f.ctrl.State().Window, 2)

	f.ctrl.OnSample(2, 99, nil)
	assert.Len(t, f.ctrl.State().Window, 2, "samples after stop are dropped")
	assert.Equal(t, "130", f.surface.Stats.Current.String())

	f.ctrl.Stop()
	assert.Equal(t, controls{start: true, export: true}, *f.btn, "stop while idle is a no-op")
}

func TestRestartClearsPreviousSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	first := f.ctrl.Session()
	f.feed(72, 58)
	f.ctrl.Stop()

	require.NoError(t, f.ctrl.Start(context.Background()))
	assert.NotEqual(t, first, f.ctrl.Session())
	assert.Empty(t, f.ctrl.State().Window)
	assert.True(t, f.surface.Empty)
	assert.Equal(t, 0, f.surface.Timer)
	assert.Equal(t, "--", f.surface.Stats.Current.String())
	assert.ErrorIs(t, f.ctrl.Start(context.Background()), ErrSessionActive)
	assert.Equal(t, 2, f.src.opens)
}

func TestStartFailureKeepsLastSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(72)
	f.ctrl.Stop()

	f.src.err = errors.New("dial refused")
	err := f.ctrl.Start(context.Background())
	assert.ErrorContains(t, err, "dial refused")
	assert.False(t, f.ctrl.IsActive())
	assert.Len(t, f.ctrl.State().Window, 1)
}

func TestStartWithoutSource(t *testing.T) {
	ctrl := New(Options{})
	assert.ErrorIs(t, ctrl.Start(context.Background()), ErrNoSource)
}

func TestOnMessage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))

	f.ctrl.OnMessage(transport.Event{Kind: transport.KindMessage, Message: transport.Message{
		Time:        7,
		Observation: transport.Observation{ValueQuantity: transport.BPM(101)},
		Aggregates:  &transport.Aggregates{Avg: float(90), Min: float(60), Max: float(101)},
	}})
	assert.Equal(t, 7, f.surface.Timer)
	assert.Equal(t, "101", f.surface.Stats.Current.String())
	assert.Equal(t, "60", f.surface.Stats.Min.String())

	before := f.ctrl.State()
	f.ctrl.OnMessage(transport.Event{Kind: transport.KindMalformed, Err: transport.ErrMalformed})
	f.ctrl.OnMessage(transport.Event{Kind: transport.KindMessage, Message: transport.Message{Time: 8}})
	assert.Equal(t, before, f.ctrl.State(), "malformed messages do not mutate the session")
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SamplesRejected))
}

func TestTransportErrorIsNonFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(80)

	f.ctrl.OnMessage(transport.Event{Kind: transport.KindError, Err: errors.New("reset by peer")})
	assert.True(t, f.ctrl.IsActive())
	assert.Equal(t, alert.Notice(NoticeTransport), f.surface.Alert)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TransportFaults))

	f.feed(85)
	assert.False(t, f.surface.Alert.Active, "the next sample re-evaluates the banner")
}

func TestTransportCloseEndsSessionKeepingData(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(72, 130)

	f.ctrl.OnMessage(transport.Event{Kind: transport.KindClosed})
	assert.False(t, f.ctrl.IsActive())
	assert.Len(t, f.ctrl.State().Window, 2)
	assert.True(t, f.surface.Alert.Active, "banner survives a transport close")
	assert.Equal(t, controls{start: true, export: true}, *f.btn)

	records, err := f.ctrl.Records()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "session_heart_rate.csv")

	assert.ErrorIs(t, f.ctrl.Export(path), ErrNoData)

	require.NoError(t, f.ctrl.Start(context.Background()))
	f.ctrl.OnSample(0, 72, nil)
	f.ctrl.OnSample(1, 58, nil)
	assert.ErrorIs(t, f.ctrl.Export(path), ErrSessionActive)

	f.ctrl.Stop()
	require.NoError(t, f.ctrl.Export(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "time,heart_rate\n0,72\n1,58\n", string(data))
}

func TestFormatTimer(t *testing.T) {
	for in, want := range map[int]string{0: "00:00", 7: "00:07", 65: "01:05", 3600: "60:00", -3: "00:00"} {
		assert.Equal(t, want, FormatTimer(in))
	}
}

func TestDisplayInteractionKeepsWindow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(72, 58, 130)
	window := f.ctrl.State().Window
	d := f.ctrl.Display()

	d.ZoomAt(2, 300, 200)
	d.Pan(-20, 0)
	d.Brush(100, 200)
	require.NotNil(t, d.Selection())
	f.surface.Sizes[RegionChart] = render.Size{W: 800, H: 500}
	d.Resize()
	assert.Equal(t, 800.0, f.surface.Frames[RegionChart].Width)
	d.ClearBrush()
	assert.Nil(t, d.Selection())
	d.ResetView()

	assert.Equal(t, window, f.ctrl.State().Window)
}

func TestDisplayHover(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(72, 58)
	d := f.ctrl.Display()

	chart, ok := d.Frame(RegionChart)
	require.True(t, ok)
	require.Len(t, chart.Targets, 2)
	pt := chart.Targets[1]
	require.NoError(t, d.Hover(RegionChart, pt.X+pt.W/2, pt.Y+pt.H/2))
	assert.True(t, f.surface.HintOn)
	assert.Equal(t, "chart/1", f.surface.Hint.Key)
	assert.Equal(t, "Value: 58 bpm\nIndex: 1", f.surface.Hint.Text)

	bars, _ := d.Frame(RegionBars)
	bar := bars.Targets[0]
	require.NoError(t, d.Hover(RegionBars, bar.X+1, bar.Y+1))
	assert.Equal(t, "bars/0", f.surface.Hint.Key, "one hint shared by both regions")

	d.Leave()
	assert.False(t, f.surface.HintOn)
	assert.Error(t, d.Hover("gauge", 0, 0))
}

func TestBarHintFollowsItsSample(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.feed(61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 72)
	d := f.ctrl.Display()

	bars, _ := d.Frame(RegionBars)
	bar := bars.Targets[9]
	require.NoError(t, d.Hover(RegionBars, bar.X+1, bar.Y+1))
	require.Equal(t, "bars/11", f.surface.Hint.Key)

	f.feed(73)
	assert.True(t, f.surface.HintOn)
	assert.Equal(t, "bars/11", f.surface.Hint.Key)
	assert.Equal(t, "Value: 72 bpm\nBar: 9", f.surface.Hint.Text)

	f.feed(74, 75, 76, 77, 78, 79, 80, 81, 82)
	assert.False(t, f.surface.HintOn, "the hint closes once its sample scrolls out")
}

func TestLoopSerialisesEventsAndCalls(t *testing.T) {
	f := newFixture(t)
	loop := NewLoop(f.ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var startErr error
	require.NoError(t, loop.Do(ctx, func(c *Controller) { startErr = c.Start(context.Background()) }))
	require.NoError(t, startErr)

	f.src.ch <- transport.Event{Kind: transport.KindMessage, Message: transport.Message{
		Time: 3, Observation: transport.Observation{ValueQuantity: transport.BPM(75)},
	}}
	require.Eventually(t, func() bool {
		var n int
		_ = loop.Do(ctx, func(c *Controller) { n = c.State().Records })
		return n == 1
	}, time.Second, 5*time.Millisecond)

	close(f.src.ch)
	require.Eventually(t, func() bool {
		var active bool
		_ = loop.Do(ctx, func(c *Controller) { active = c.IsActive() })
		return !active
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, loop.Do(ctx, func(*Controller) {}), context.Canceled)
}
