package dashboard

import (
	"github.com/saveugene/pulsedash/internal/alert"
	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/stats"
)

type nopSurface struct{}

func (nopSurface) Size(Region) render.Size { return render.Size{} }
func (nopSurface) Draw(Region, render.Frame) {}
func (nopSurface) ShowEmpty(bool) {}
func (nopSurface) ShowStats(stats.Snapshot) {}
func (nopSurface) ShowTimer(int) {}
func (nopSurface) ShowAlert(alert.State) {}
func (nopSurface) ShowHint(render.Hint, bool) {}

// Snapshot is a Surface that keeps the latest output of each kind. HTTP
// hosts serve from it; tests inspect it.
type Snapshot struct {
	Sizes  map[Region]render.Size
	Frames map[Region]render.Frame
	Empty  bool
	Stats  stats.Snapshot
	Timer  int
	Alert  alert.State
	Hint   render.Hint
	HintOn bool

	// Order lists the calls of the last update, e.g. "draw:chart".
	Order []string
}

func NewSnapshot(chart, bars render.Size) *Snapshot {
	return &Snapshot{
		Sizes:  map[Region]render.Size{RegionChart: chart, RegionBars: bars},
		Frames: make(map[Region]render.Frame, 2),
	}
}

func (s *Snapshot) Size(r Region) render.Size { return s.Sizes[r] }

func (s *Snapshot) Draw(r Region, f render.Frame) {
	if r == RegionChart {
		s.Order = s.Order[:0]
	}
	s.Frames[r] = f
	s.Order = append(s.Order, "draw:"+string(r))
}

func (s *Snapshot) ShowEmpty(empty bool) {
	s.Empty = empty
	s.Order = append(s.Order, "empty")
}

func (s *Snapshot) ShowStats(st stats.Snapshot) {
	s.Stats = st
	s.Order = append(s.Order, "stats")
}

func (s *Snapshot) ShowTimer(sec int) {
	s.Timer = sec
	s.Order = append(s.Order, "timer")
}

func (s *Snapshot) ShowAlert(a alert.State) {
	s.Alert = a
	s.Order = append(s.Order, "alert")
}

func (s *Snapshot) ShowHint(h render.Hint, visible bool) {
	s.Hint, s.HintOn = h, visible
}
