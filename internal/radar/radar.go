// Package radar renders telemetry frames as a ship-centred terminal plot.
package radar

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/systems/physics"
	"github.com/zeusync/duelist/internal/core/telemetry"
)

// headingRunes are indexed by heading octant, counter-clockwise from +x.
var headingRunes = []rune("→↗↑↖←↙↓↘")

const (
	markerRune = 'o'
	lineRune   = '·'
	targetRune = 'X'
)

// Radar draws the latest frame of one duel onto a tcell screen. Screen rows
// are about twice as tall as columns are wide, so y is squashed by two.
type Radar struct {
	screen tcell.Screen
	duel   string
	scale  float64

	mu   sync.Mutex
	last *telemetry.Frame
}

type Option func(*Radar)

// WithDuel only draws frames of the named duel.
func WithDuel(name string) Option { return func(r *Radar) { r.duel = name } }

// WithScale fixes the zoom in metres per column. Without it every frame is
// fitted to the screen.
func WithScale(metersPerCell float64) Option { return func(r *Radar) { r.scale = metersPerCell } }

func New(screen tcell.Screen, opts ...Option) *Radar {
	r := &Radar{screen: screen}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach draws every matching frame published on the bus.
func (r *Radar) Attach(b bus.EventBus) (bus.Subscription, error) {
	return telemetry.Subscribe(b, func(f telemetry.Frame) error {
		r.Draw(f)
		return nil
	})
}

// Draw replaces the picture with f. Frames of other duels are ignored.
func (r *Radar) Draw(f telemetry.Frame) {
	if r.duel != "" && f.Duel != r.duel {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &f
	r.render(f)
}

// Run handles resize and quit keys (Esc, Ctrl-C, q) until one arrives or ctx
// is done.
func (r *Radar) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go r.screen.ChannelEvents(events, quit)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				r.redraw()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			}
		}
	}
}

func (r *Radar) redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen.Sync()
	if r.last != nil {
		r.render(*r.last)
	}
}

type viewport struct {
	center physics.Vec2
	cx, cy int
	scale  float64
}

func (v viewport) cell(p physics.Vec2) (int, int) {
	d := p.Sub(v.center)
	return v.cx + int(math.Round(d.X/v.scale)), v.cy - int(math.Round(d.Y/(2*v.scale)))
}

func (r *Radar) render(f telemetry.Frame) {
	w, h := r.screen.Size()
	vp := viewport{center: f.Ship.Position, cx: w / 2, cy: h / 2, scale: r.scale}
	if vp.scale <= 0 {
		vp.scale = fitScale(f, w, h)
	}

	r.screen.Clear()
	for _, s := range f.Shapes {
		if !s.IsFinite() {
			continue
		}
		style := tcell.StyleDefault.Foreground(color(s.Color))
		switch s.Kind {
		case telemetry.ShapeLine:
			x0, y0 := vp.cell(s.From)
			x1, y1 := vp.cell(s.To)
			r.line(x0, y0, x1, y1, style)
		case telemetry.ShapeMarker:
			x, y := vp.cell(s.From)
			r.put(x, y, markerRune, style)
		}
	}

	if f.Target.Position.IsFinite() {
		tx, ty := vp.cell(f.Target.Position)
		r.put(tx, ty, targetRune, tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	}
	r.put(vp.cx, vp.cy, headingRune(f.Ship.Heading), tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true))

	status := fmt.Sprintf("duel %s  tick %d  range %.0fm  speed %.0fm/s  scale %.1fm",
		f.Duel, f.Tick, f.Ship.Position.Distance(f.Target.Position), f.Ship.Velocity.Length(), vp.scale)
	r.text(0, 0, status, tcell.StyleDefault.Reverse(true))
	r.screen.Show()
}

func (r *Radar) put(x, y int, ch rune, style tcell.Style) {
	w, h := r.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	r.screen.SetContent(x, y, ch, nil, style)
}

func (r *Radar) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.put(x, y, ch, style)
		x++
	}
}

// line plots a Bresenham segment, clipping cell by cell.
func (r *Radar) line(x0, y0, x1, y1 int, style tcell.Style) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	w, h := r.screen.Size()
	// Segments start at the ship, so this many steps always crosses the screen.
	for steps := 0; steps <= 4*(w+h); steps++ {
		r.put(x0, y0, lineRune, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func headingRune(heading float64) rune {
	octant := int(math.Round(physics.NormalizeAngle(heading)/(math.Pi/4))) % len(headingRunes)
	return headingRunes[octant]
}

func color(c telemetry.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// fitScale zooms so the target and every shape fit on the screen.
func fitScale(f telemetry.Frame, w, h int) float64 {
	halfW, halfH := float64(w/2-1), float64(h/2-1)
	if halfW < 1 || halfH < 1 {
		return 1
	}
	scale := 0.0
	fit := func(p physics.Vec2) {
		if !p.IsFinite() {
			return
		}
		d := p.Sub(f.Ship.Position)
		scale = math.Max(scale, math.Max(math.Abs(d.X)/halfW, math.Abs(d.Y)/(2*halfH)))
	}
	fit(f.Target.Position)
	for _, s := range f.Shapes {
		fit(s.From)
		if s.Kind == telemetry.ShapeLine {
			fit(s.To)
		}
	}
	if scale == 0 {
		return 1
	}
	return scale
}
