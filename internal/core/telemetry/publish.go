package telemetry

import (
	"fmt"

	bus "github.com/zeusync/duelist/internal/core/events/bus"
	"github.com/zeusync/duelist/internal/core/systems/physics"
)

// FrameEvent is the bus event type carrying a Frame.
const FrameEvent = "telemetry.frame"

// Publish sends the frame on the bus.
func Publish(b bus.EventBus, source string, f Frame) error {
	return b.Publish(bus.NewEvent(FrameEvent, source, f))
}

// Subscribe calls fn for every frame published on the bus.
func Subscribe(b bus.EventBus, fn func(Frame) error) (bus.Subscription, error) {
	return b.Subscribe(FrameEvent, func(e bus.Event) error {
		f, ok := e.Data.(Frame)
		if !ok {
			return fmt.Errorf("telemetry: unexpected payload %T from %s", e.Data, e.Source)
		}
		return fn(f)
	})
}

// BusSink records shapes for one duel and publishes them as a Frame on Emit.
type BusSink struct {
	*Recorder
	bus  bus.EventBus
	duel string
}

func NewBusSink(b bus.EventBus, duel string) *BusSink {
	return &BusSink{Recorder: NewRecorder(), bus: b, duel: duel}
}

// Emit flushes the recorder into a frame for the given tick.
func (s *BusSink) Emit(tick uint64, ship, target physics.Body) error {
	return Publish(s.bus, s.duel, Frame{
		Duel:   s.duel,
		Tick:   tick,
		Ship:   ship,
		Target: target,
		Shapes: s.Flush(),
	})
}
