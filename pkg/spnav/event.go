// Package spnav provides shared, reference-counted access to a space
// navigator driver connection and a typed view of its event stream.
//
// Any number of goroutines may hold a Connection at the same time; the
// process keeps a single driver connection open for as long as at least
// one Connection is alive. The driver's event queue is one shared stream,
// not per-Connection: concurrent waiters race for events, with no fairness
// guarantee beyond the driver's own delivery order.
package spnav

// EventType selects a class of events. Its values match the driver's
// filter codes.
type EventType int32

const (
	EventAny EventType = iota
	EventMotion
	EventButton
)

func (t EventType) String() string {
	switch t {
	case EventAny:
		return "any"
	case EventMotion:
		return "motion"
	case EventButton:
		return "button"
	}
	return "unknown"
}

// Event is one decoded driver notification: either a MotionEvent or a
// ButtonEvent. An Event is immutable and fully populated before it is
// handed to the caller.
type Event interface {
	Type() EventType
}

// MotionEvent is a 6-DoF update: three translation axes, three rotation
// axes, and the time since the previous motion event in the driver's
// period unit (milliseconds for the daemon protocol).
type MotionEvent struct {
	X, Y, Z    int32
	RX, RY, RZ int32
	Period     uint32
}

func (MotionEvent) Type() EventType { return EventMotion }

// Translation returns the x, y, z components as one triple.
func (e MotionEvent) Translation() (x, y, z int32) { return e.X, e.Y, e.Z }

// Rotation returns the rx, ry, rz components as one triple.
func (e MotionEvent) Rotation() (rx, ry, rz int32) { return e.RX, e.RY, e.RZ }

// ButtonEvent is a press or release of one device button.
type ButtonEvent struct {
	Press bool
	Num   int32
}

func (ButtonEvent) Type() EventType { return EventButton }
