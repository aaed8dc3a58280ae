//go:build !windows

package driver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultSocketPath is where spacenavd listens by default.
const DefaultSocketPath = "/var/run/spnav.sock"

// Each daemon packet is eight little-endian 32-bit words:
// type, x, y, z, rx, ry, rz, period.
const packetSize = 32

// Daemon packet types. Press and release share one record discriminant on
// our side; the press flag is derived from the packet type.
const (
	wireMotion  = 0
	wirePress   = 1
	wireRelease = 2
)

// Socket is the spacenavd transport: a client of the daemon's AF_UNIX
// stream socket.
//
// A blocked WaitEvent owns the stream; concurrent PollEvent calls report
// no event rather than racing it for bytes.
type Socket struct {
	path string
	fd   int

	mu    sync.Mutex
	rbuf  [packetSize]byte
	have  int
	queue []RawEvent // events set aside by RemoveEvents
}

// NewSocket returns an unopened binding for the daemon socket at path.
// An empty path selects DefaultSocketPath.
func NewSocket(path string) *Socket {
	if path == "" {
		path = DefaultSocketPath
	}
	return &Socket{path: path, fd: -1}
}

func (s *Socket) Open() error {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: s.path}); err != nil {
		unix.Close(fd)
		return fmt.Errorf("connect %s: %w", s.path, err)
	}

	s.fd = fd
	s.have = 0
	s.queue = nil
	slog.Debug("connected to spacenavd", slog.String("path", s.path), slog.Int("fd", fd))
	return nil
}

func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close driver socket: %w", err)
	}
	return nil
}

func (s *Socket) Fd() (int, error) {
	if s.fd < 0 {
		return -1, errors.New("no open driver connection")
	}
	return s.fd, nil
}

func (s *Socket) WaitEvent(ev *RawEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.popQueued(ev) {
		return nil
	}
	for s.have < packetSize {
		n, err := unix.Read(s.fd, s.rbuf[s.have:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("read driver socket: %w", err)
		}
		if n == 0 {
			return errors.New("driver closed the connection")
		}
		s.have += n
	}
	*ev = s.consumePacket()
	return nil
}

func (s *Socket) PollEvent(ev *RawEvent) bool {
	// A waiter blocked in WaitEvent holds the lock until the driver
	// delivers; polling must not wait for that.
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	if s.popQueued(ev) {
		return true
	}
	return s.readSocketLocked(ev)
}

func (s *Socket) RemoveEvents(kind int32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.queue[:0]
	for _, qe := range s.queue {
		if kind == KindAny || qe.Kind == kind {
			removed++
		} else {
			kept = append(kept, qe)
		}
	}
	s.queue = kept

	// Drain whatever the daemon has already delivered; records that do not
	// match go back on the client-side queue in arrival order.
	var ev RawEvent
	for s.readSocketLocked(&ev) {
		if kind == KindAny || ev.Kind == kind {
			removed++
		} else {
			s.queue = append(s.queue, ev)
		}
	}
	return removed
}

// SetSensitivity sends the daemon a new motion scale. The wire form is a
// single raw little-endian float32.
func (s *Socket) SetSensitivity(sens float64) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(sens)))
	if _, err := unix.Write(s.fd, buf[:]); err != nil {
		return fmt.Errorf("write sensitivity: %w", err)
	}
	return nil
}

func (s *Socket) popQueued(ev *RawEvent) bool {
	if len(s.queue) == 0 {
		return false
	}
	*ev = s.queue[0]
	s.queue = s.queue[1:]
	return true
}

// readSocketLocked attempts a non-blocking read of one packet, buffering
// partial packets across calls. Hard socket errors are indistinguishable
// from an empty queue here on purpose: polling treats both as "no event".
func (s *Socket) readSocketLocked(ev *RawEvent) bool {
	for s.have < packetSize {
		n, _, err := unix.Recvfrom(s.fd, s.rbuf[s.have:], unix.MSG_DONTWAIT)
		if err != nil || n <= 0 {
			return false
		}
		s.have += n
	}
	*ev = s.consumePacket()
	return true
}

func (s *Socket) consumePacket() RawEvent {
	var w [8]int32
	for i := range w {
		w[i] = int32(binary.LittleEndian.Uint32(s.rbuf[4*i:]))
	}
	s.have = 0
	return translate(w)
}

// translate maps one daemon packet onto the driver record layout.
func translate(w [8]int32) RawEvent {
	switch w[0] {
	case wireMotion:
		ev := RawEvent{Kind: KindMotion}
		copy(ev.Data[:], w[1:])
		return ev
	case wirePress, wireRelease:
		ev := RawEvent{Kind: KindButton}
		if w[0] == wirePress {
			ev.Data[0] = 1
		}
		ev.Data[1] = w[1]
		return ev
	default:
		// Newer daemons may add packet types; carry the discriminant
		// through so the decoder can reject it.
		return RawEvent{Kind: w[0]}
	}
}
