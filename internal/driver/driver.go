// Package driver talks to the space navigator driver boundary. The library
// only ever sees the seven primitives in Binding; which transport sits
// behind them (spacenavd socket, direct HID, mock) is an implementation
// detail of this package.
package driver

// Raw record discriminants. These values are the driver's ABI and double as
// the filter codes accepted by RemoveEvents.
const (
	KindAny    int32 = 0
	KindMotion int32 = 1
	KindButton int32 = 2
)

// RawEvent mirrors the driver's fixed-layout event record: a discriminant
// followed by seven payload words whose meaning depends on it.
//
//	motion: Data = x, y, z, rx, ry, rz, period
//	button: Data = press, bnum
//
// Callers reuse the same RawEvent across calls; bindings overwrite it in
// place and must not retain a reference to it.
type RawEvent struct {
	Kind int32
	Data [7]int32
}

// Binding is the set of primitives required of a driver transport.
//
// Open, Close and Fd are only ever called under the connection manager's
// lock and need no internal synchronization against each other. WaitEvent
// and PollEvent may be called concurrently from any number of goroutines;
// PollEvent must never block.
type Binding interface {
	// Open establishes the single driver connection.
	Open() error

	// Close tears the connection down. The caller treats a failure here as
	// fatal for the teardown; it cannot retry.
	Close() error

	// Fd reports the OS-level descriptor of the open connection.
	Fd() (int, error)

	// WaitEvent blocks until the driver delivers an event into ev, or
	// returns an error when the connection terminates.
	WaitEvent(ev *RawEvent) error

	// PollEvent reports whether a queued event was delivered into ev. It
	// never blocks; an empty queue is not an error.
	PollEvent(ev *RawEvent) bool

	// RemoveEvents drops all queued events matching kind (KindAny matches
	// everything) and reports how many were dropped.
	RemoveEvents(kind int32) int

	// SetSensitivity adjusts the driver's motion scaling.
	SetSensitivity(sens float64) error
}
