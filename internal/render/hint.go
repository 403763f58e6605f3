package render

// Tooltip offset from the pointer, in pixels.
const (
	HintOffsetX = 12
	HintOffsetY = -18
)

// Hint is a tooltip anchored near the pointer.
type Hint struct {
	Source string // region the hint belongs to
	Key    string // hovered target, highlighted by the renderers
	Text   string
	X, Y   float64
}

// HintSink is the one pointer hint shared by every renderer of a dashboard,
// so at most one hint is visible at a time.
type HintSink interface {
	Show(Hint)
	Move(x, y float64)
	Hide()
}

// Tooltip is the in-memory HintSink. Hosts read it back with Current to draw
// the tooltip element.
type Tooltip struct {
	hint    Hint
	visible bool
}

func (t *Tooltip) Show(h Hint) {
	h.X += HintOffsetX
	h.Y += HintOffsetY
	t.hint, t.visible = h, true
}

func (t *Tooltip) Move(x, y float64) {
	if !t.visible {
		return
	}
	t.hint.X, t.hint.Y = x+HintOffsetX, y+HintOffsetY
}

func (t *Tooltip) Hide() {
	t.hint, t.visible = Hint{}, false
}

// SetText replaces the text of a visible hint in place.
func (t *Tooltip) SetText(text string) {
	if t.visible {
		t.hint.Text = text
	}
}

func (t *Tooltip) Current() (Hint, bool) {
	return t.hint, t.visible
}

// Highlighted is the key of the hovered target, or "".
func (t *Tooltip) Highlighted() string {
	if !t.visible {
		return ""
	}
	return t.hint.Key
}

// Hover hit-tests f at (x, y) and shows or hides the shared hint. It reports
// whether the highlighted target changed.
func Hover(f Frame, source string, x, y float64, sink HintSink, current string) bool {
	target, ok := f.HitTest(x, y)
	if !ok {
		sink.Hide()
		return current != ""
	}
	if target.Key == current {
		sink.Move(x, y)
		return false
	}
	sink.Show(Hint{Source: source, Key: target.Key, Text: target.Text, X: x, Y: y})
	return true
}
