package spnav

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/seagrayinc/spnav/internal/driver"
)

// Client multiplexes any number of logical connections onto the single
// driver connection behind a Binding. The zero-to-one acquisition opens
// the driver, the one-to-zero release closes it; everything in between
// only moves the counter.
type Client struct {
	binding driver.Binding

	mu    sync.Mutex
	count int
}

// NewClient returns a Client over the given driver binding. Most callers
// want the package-level Open instead, which shares one Client for the
// whole process.
func NewClient(b driver.Binding) *Client {
	return &Client{binding: b}
}

// Open acquires a Connection. The first acquisition opens the driver
// connection; later ones attach to it. On failure no Connection exists
// and the driver state is unchanged, so a later Open can retry.
func (c *Client) Open() (*Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	opened := false
	if c.count == 0 {
		if err := c.binding.Open(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}
		opened = true
	}

	fd, err := c.binding.Fd()
	if err != nil {
		if opened {
			// Nobody holds the connection we just opened; unwind it so the
			// count-zero means closed invariant still holds.
			if cerr := c.binding.Close(); cerr != nil {
				slog.Error("closing driver connection failed", slog.Any("error", cerr))
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDescriptor, err)
	}

	c.count++
	return &Connection{client: c, fd: fd}, nil
}

func (c *Client) release(conn *Connection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn.released {
		return nil
	}
	conn.released = true

	if c.count == 0 {
		return nil
	}
	c.count--
	if c.count > 0 {
		return nil
	}

	// The count is back at zero before the close, so a close failure
	// cannot leave the open state leaked: there is nobody left who could
	// retry a lifetime-end operation.
	if err := c.binding.Close(); err != nil {
		slog.Error("closing driver connection failed", slog.Any("error", err))
		return fmt.Errorf("close driver connection: %w", err)
	}
	return nil
}

// Connection is one logical handle to the shared driver connection.
// Methods on a Connection must not be used after Close.
type Connection struct {
	client   *Client
	fd       int
	released bool // guarded by client.mu
}

// Fd returns the OS-level descriptor of the driver connection. It stays
// valid for the Connection's lifetime and can be multiplexed on.
func (conn *Connection) Fd() int { return conn.fd }

// Close releases the Connection. The last release closes the driver
// connection; closing twice is a no-op.
func (conn *Connection) Close() error {
	return conn.client.release(conn)
}

// Poll reports a queued event without blocking. It returns false when the
// queue is empty and also when the queued record was unrecognizable:
// malformed records are not errors to a polling loop, they simply never
// happened.
func (conn *Connection) Poll() (Event, bool) {
	var raw driver.RawEvent
	if !conn.client.binding.PollEvent(&raw) {
		return nil, false
	}
	ev, err := decodeEvent(raw)
	if err != nil {
		slog.Debug("dropping unrecognized event record", slog.Int("discriminant", int(raw.Kind)))
		return nil, false
	}
	return ev, true
}

// Wait blocks the calling goroutine until the driver delivers an event or
// the connection terminates (ErrWaitFailed). Unlike Poll it reports an
// unrecognizable record as ErrUnknownEvent: a blocked caller needs to
// know progress occurred even when the record is uninterpretable.
func (conn *Connection) Wait() (Event, error) {
	var raw driver.RawEvent
	if err := conn.client.binding.WaitEvent(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWaitFailed, err)
	}
	return decodeEvent(raw)
}

// Discard drops all currently queued events matching t and reports how
// many were dropped. It does not affect the connection lifetime.
func (conn *Connection) Discard(t EventType) int {
	return conn.client.binding.RemoveEvents(int32(t))
}

// SetSensitivity adjusts the driver's motion scaling for the shared
// connection.
func (conn *Connection) SetSensitivity(sens float64) error {
	return conn.client.binding.SetSensitivity(sens)
}

var (
	stdOnce sync.Once
	std     *Client
)

// Open acquires a Connection from the process-wide Client, which talks to
// spacenavd over its unix socket at the default path.
func Open() (*Connection, error) {
	stdOnce.Do(func() {
		std = NewClient(driver.NewSocket(""))
	})
	return std.Open()
}
