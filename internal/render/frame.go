// Package render turns a sample snapshot and viewport state into a frame of
// draw commands. Frames are plain data; sinks (SVG, terminal) replay them.
package render

// Style carries presentation attributes of a command. Empty colours mean
// "none".
type Style struct {
	Stroke      string
	StrokeWidth float64
	Dash        []float64
	Fill        string
}

// Command is one drawing primitive.
type Command interface {
	command()
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Style
}

type Polyline struct {
	Points []Point
	Style
}

type Circle struct {
	X, Y, R float64
	Style
	Key string
}

type Rect struct {
	X, Y, W, H float64
	Style
	Key string
}

type Text struct {
	X, Y     float64
	Body     string
	Size     float64
	Color    string
	Anchor   Anchor
	Bold     bool
	Rotation float64 // degrees, around (X, Y)
}

// Group applies a transform to its children.
type Group struct {
	Transform Transform
	Children  []Command
}

func (Line) command()     {}
func (Polyline) command() {}
func (Circle) command()   {}
func (Rect) command()     {}
func (Text) command()     {}
func (Group) command()    {}

type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

type Point struct{ X, Y float64 }

// Transform maps local coordinates to parent ones: p' = (X + K*p.x, Y + K*p.y).
type Transform struct {
	K, X, Y float64
}

var Identity = Transform{K: 1}

func Translate(x, y float64) Transform { return Transform{K: 1, X: x, Y: y} }

func (t Transform) Apply(p Point) Point {
	return Point{X: t.X + t.K*p.X, Y: t.Y + t.K*p.Y}
}

// Then returns the transform applying child first and t second.
func (t Transform) Then(child Transform) Transform {
	return Transform{K: t.K * child.K, X: t.X + t.K*child.X, Y: t.Y + t.K*child.Y}
}

// Target is a hoverable element in frame pixel coordinates.
type Target struct {
	Key  string
	Text string
	X, Y float64 // top-left
	W, H float64
}

func (t Target) contains(x, y float64) bool {
	return x >= t.X && x <= t.X+t.W && y >= t.Y && y <= t.Y+t.H
}

// Range is an interval in domain units.
type Range struct {
	Lo, Hi float64
}

// Frame is the complete output of one render call.
type Frame struct {
	Width, Height float64
	Commands      []Command
	Targets       []Target
	Empty         bool
	Selection     *Range
}

// HitTest returns the topmost target under (x, y).
func (f Frame) HitTest(x, y float64) (Target, bool) {
	for i := len(f.Targets) - 1; i >= 0; i-- {
		if f.Targets[i].contains(x, y) {
			return f.Targets[i], true
		}
	}
	return Target{}, false
}

// Target returns the target with the given key.
func (f Frame) Target(key string) (Target, bool) {
	for _, t := range f.Targets {
		if t.Key == key {
			return t, true
		}
	}
	return Target{}, false
}

// Walk calls fn for every leaf command with its accumulated transform.
func Walk(cmds []Command, t Transform, fn func(Command, Transform)) {
	for _, c := range cmds {
		if g, ok := c.(Group); ok {
			Walk(g.Children, t.Then(g.Transform), fn)
			continue
		}
		fn(c, t)
	}
}
