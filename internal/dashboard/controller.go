// Package dashboard drives a monitoring session: it owns the live window,
// feeds the renderers and panels, and moves between Idle and Active.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/alert"
	"github.com/saveugene/pulsedash/internal/buffer"
	"github.com/saveugene/pulsedash/internal/export"
	"github.com/saveugene/pulsedash/internal/metrics"
	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/stats"
	"github.com/saveugene/pulsedash/internal/transport"
	"github.com/saveugene/pulsedash/internal/vitals"
)

var (
	ErrSessionActive = errors.New("session is active")
	ErrNoData        = errors.New("no readings recorded")
	ErrNoSource      = errors.New("no transport source")
)

// NoticeTransport is shown in the banner after a transport fault.
const NoticeTransport = "Connection error! Waiting for data..."

// Record is one export log entry.
type Record = export.Record

type Phase int

const (
	Idle Phase = iota
	Active
)

func (p Phase) String() string {
	if p == Active {
		return "active"
	}
	return "idle"
}

// Controls enables or disables the session buttons of a host.
type Controls interface {
	SetEnabled(start, stop, export bool)
}

type Options struct {
	Source   transport.Source
	Surface  Surface
	Controls Controls
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Capacity int

	// Chart and Bars override the default renderers, e.g. with a compact
	// layout for small hosts.
	Chart *render.ChartRenderer
	Bars  *render.SummaryRenderer
}

// Controller is the session state machine. It is not safe for concurrent
// use: every call must come from the goroutine running the event loop.
type Controller struct {
	source   transport.Source
	display  *Display
	controls Controls
	logger   *zap.Logger
	metrics  *metrics.Metrics

	phase   Phase
	session string
	buf     *buffer.Buffer
	timer   int
	records []Record
	agg     *stats.Aggregates
	stats   stats.Snapshot
	alert   alert.State

	inbound <-chan transport.Event
	cancel  context.CancelFunc
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	controls := opts.Controls
	if controls == nil {
		controls = noControls{}
	}
	surface := opts.Surface
	if surface == nil {
		surface = nopSurface{}
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = vitals.MaxPoints
	}
	chart := opts.Chart
	if chart == nil {
		chart = render.NewChartRenderer()
	}
	chart.Capacity = capacity
	c := &Controller{
		source:   opts.Source,
		display:  NewDisplay(surface, chart, opts.Bars),
		controls: controls,
		logger:   logger,
		metrics:  opts.Metrics,
		buf:      buffer.New(capacity),
	}
	c.controls.SetEnabled(true, false, false)
	c.refresh()
	return c
}

// Display exposes the coordinator for pointer and viewport events.
func (c *Controller) Display() *Display { return c.display }

func (c *Controller) IsActive() bool { return c.phase == Active }

// Session is the id of the current or last session, empty before the first.
func (c *Controller) Session() string { return c.session }

// Inbound is the transport channel of the running session. It is nil while
// Idle, so a select never receives from a detached stream.
func (c *Controller) Inbound() <-chan transport.Event {
	if c.phase != Active {
		return nil
	}
	return c.inbound
}

// Start clears the previous session and opens the transport.
func (c *Controller) Start(ctx context.Context) error {
	if c.phase == Active {
		return ErrSessionActive
	}
	if c.source == nil {
		return ErrNoSource
	}

	sctx, cancel := context.WithCancel(ctx)
	ch, err := c.source.Stream(sctx)
	if err != nil {
		cancel()
		return fmt.Errorf("open stream: %w", err)
	}

	c.buf.Clear()
	c.timer = 0
	c.records = nil
	c.agg = nil
	c.alert = alert.State{}
	c.stats = stats.Compute(nil, nil)

	c.session = uuid.NewString()
	c.phase = Active
	c.inbound = ch
	c.cancel = cancel
	c.metrics.SessionStarted()
	c.logger.Info("session started", zap.String("session", c.session))

	c.controls.SetEnabled(false, true, false)
	c.refresh()
	return nil
}

// Stop ends the session on user request and hides the banner. The window
// keeps its samples until the next Start.
func (c *Controller) Stop() {
	if c.phase != Active {
		return
	}
	c.end()
	c.alert = alert.State{}
	c.display.Panels(c.stats, c.timer, c.alert)
	c.logger.Info("session stopped", zap.String("session", c.session),
		zap.Int("readings", len(c.records)))
}

// end performs the Active to Idle transition: detach, release, refresh.
func (c *Controller) end() {
	c.phase = Idle
	c.inbound = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stats = stats.Compute(c.buf.Snapshot(), c.agg)
	c.controls.SetEnabled(true, false, true)
	c.display.Panels(c.stats, c.timer, c.alert)
}

// OnSample accepts one reading. Samples arriving while Idle are dropped.
func (c *Controller) OnSample(time int, value float64, agg *stats.Aggregates) {
	if c.phase != Active {
		return
	}
	c.timer = time
	c.buf.Push(vitals.Sample{Seq: len(c.records), Value: value})
	c.agg = agg
	c.stats = stats.Compute(c.buf.Snapshot(), agg)
	c.alert = alert.Evaluate(value)
	c.records = append(c.records, Record{Time: time, Value: value})
	c.metrics.Accepted(c.alert.Active, c.buf.Len())
	c.refresh()
}

// OnMessage dispatches one transport event.
func (c *Controller) OnMessage(ev transport.Event) {
	switch ev.Kind {
	case transport.KindMessage:
		v, err := ev.Message.Value()
		if err != nil {
			c.reject(err)
			return
		}
		c.OnSample(ev.Message.Time, v, ev.Message.Aggregates.Stats())
	case transport.KindMalformed:
		c.reject(ev.Err)
	case transport.KindError:
		c.OnTransportError(ev.Err)
	case transport.KindClosed:
		c.OnTransportLost(ev.Err)
	}
}

func (c *Controller) reject(err error) {
	if c.phase != Active {
		return
	}
	c.metrics.Rejected()
	c.logger.Debug("sample rejected", zap.String("session", c.session), zap.Error(err))
}

// OnTransportError shows a non-fatal notice; the session stays Active.
func (c *Controller) OnTransportError(err error) {
	if c.phase != Active {
		return
	}
	c.metrics.Fault()
	c.logger.Warn("transport fault", zap.String("session", c.session), zap.Error(err))
	c.alert = alert.Notice(NoticeTransport)
	c.display.Panels(c.stats, c.timer, c.alert)
}

// OnTransportLost ends the session after the stream closed. Collected
// samples and the banner are kept.
func (c *Controller) OnTransportLost(err error) {
	if c.phase != Active {
		return
	}
	c.logger.Info("transport closed", zap.String("session", c.session), zap.Error(err))
	c.end()
}

// Records returns a copy of the export log. It is only available while Idle.
func (c *Controller) Records() ([]Record, error) {
	if c.phase == Active {
		return nil, ErrSessionActive
	}
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out, nil
}

// Export writes the last session to path as CSV.
func (c *Controller) Export(path string) error {
	records, err := c.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoData
	}
	if err := export.SaveCSV(path, records); err != nil {
		return err
	}
	c.logger.Info("session exported", zap.String("session", c.session),
		zap.String("path", path), zap.Int("rows", len(records)))
	return nil
}

// State is a read-only view of the controller.
type State struct {
	Phase   Phase
	Session string
	Timer   int
	Window  []vitals.Sample
	Stats   stats.Snapshot
	Alert   alert.State
	Records int
}

func (c *Controller) State() State {
	return State{
		Phase:   c.phase,
		Session: c.session,
		Timer:   c.timer,
		Window:  c.buf.Snapshot(),
		Stats:   c.stats,
		Alert:   c.alert,
		Records: len(c.records),
	}
}

// refresh redraws in a fixed order: chart, bars, empty state, stats, timer,
// alert.
func (c *Controller) refresh() {
	c.display.Update(c.buf.Snapshot())
	c.display.Panels(c.stats, c.timer, c.alert)
}

// FormatTimer renders seconds as MM:SS.
func FormatTimer(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

type noControls struct{}

func (noControls) SetEnabled(bool, bool, bool) {}
