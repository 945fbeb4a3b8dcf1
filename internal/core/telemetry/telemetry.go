// Package telemetry carries the debug drawing emitted by the pilot each tick.
// Nothing in here feeds back into control.
package telemetry

import (
	"math"

	"github.com/zeusync/duelist/internal/core/systems/physics"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

var (
	Red     = RGB(255, 0, 0)
	Yellow  = RGB(255, 255, 0)
	Blue    = RGB(0, 0, 255)
	Magenta = RGB(255, 0, 200)
	Orange  = RGB(255, 100, 0)
)

// Sink receives drawing primitives.
type Sink interface {
	Marker(at physics.Vec2, radius float64, c Color)
	Line(from, to physics.Vec2, c Color)
}

type discard struct{}

func (discard) Marker(physics.Vec2, float64, Color)    {}
func (discard) Line(physics.Vec2, physics.Vec2, Color) {}

// Discard drops everything.
var Discard Sink = discard{}

type ShapeKind string

const (
	ShapeMarker ShapeKind = "marker"
	ShapeLine   ShapeKind = "line"
)

// Shape is one recorded primitive. Markers use From and Radius.
type Shape struct {
	Kind   ShapeKind    `json:"kind"`
	From   physics.Vec2 `json:"from"`
	To     physics.Vec2 `json:"to,omitempty"`
	Radius float64      `json:"radius,omitempty"`
	Color  Color        `json:"color"`
}

// IsFinite reports whether the shape can be drawn. A degenerate intercept
// yields NaN points.
func (s Shape) IsFinite() bool {
	if !s.From.IsFinite() || math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) {
		return false
	}
	return s.Kind != ShapeLine || s.To.IsFinite()
}

// Frame is everything drawn during one tick of one duel.
type Frame struct {
	Duel   string       `json:"duel"`
	Tick   uint64       `json:"tick"`
	Ship   physics.Body `json:"ship"`
	Target physics.Body `json:"target"`
	Shapes []Shape      `json:"shapes"`
}

// Drawable returns a copy of f without the shapes that cannot be drawn. It
// reports false when the ship or target state itself is not finite.
func (f Frame) Drawable() (Frame, bool) {
	if !f.Ship.IsFinite() || !f.Target.IsFinite() {
		return f, false
	}
	shapes := make([]Shape, 0, len(f.Shapes))
	for _, s := range f.Shapes {
		if s.IsFinite() {
			shapes = append(shapes, s)
		}
	}
	f.Shapes = shapes
	return f, true
}

// Recorder buffers shapes until Flush. Not safe for concurrent use; each
// agent owns one.
type Recorder struct {
	shapes []Shape
}

func NewRecorder() *Recorder { return &Recorder{shapes: make([]Shape, 0, 8)} }

func (r *Recorder) Marker(at physics.Vec2, radius float64, c Color) {
	r.shapes = append(r.shapes, Shape{Kind: ShapeMarker, From: at, Radius: radius, Color: c})
}

func (r *Recorder) Line(from, to physics.Vec2, c Color) {
	r.shapes = append(r.shapes, Shape{Kind: ShapeLine, From: from, To: to, Color: c})
}

// Flush returns the buffered shapes and starts a new buffer.
func (r *Recorder) Flush() []Shape {
	out := r.shapes
	r.shapes = make([]Shape, 0, cap(out))
	return out
}
