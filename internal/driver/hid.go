//go:build !windows

package driver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
	usbhid "rafaelmartins.com/p/usbhid"
)

// 3Dconnexion input report IDs. Older devices split a motion update across
// a translation and a rotation report; newer ones pack both triples into a
// single 12-byte translation report.
const (
	reportTranslation = 1
	reportRotation    = 2
	reportButtons     = 3
)

// HID reads a space navigator directly over USB HID, for hosts running
// without the daemon. It synthesizes the same raw record stream the socket
// binding produces.
type HID struct {
	vid, pid uint16
	scale    atomic.Uint64 // float64 bits, motion scale

	dev              *usbhid.Device
	notifyR, notifyW int // readiness pipe backing Fd()

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []RawEvent
	closed  bool
	readErr error

	// report assembly state, touched only by the reader goroutine
	trans      [3]int32
	haveTrans  bool
	buttons    uint32
	lastMotion time.Time
}

// NewHID returns an unopened binding. vid zero means any known 3Dconnexion
// vendor; pid zero means any product of the selected vendor.
func NewHID(vid, pid uint16) *HID {
	h := &HID{vid: vid, pid: pid, notifyR: -1, notifyW: -1}
	h.cond = sync.NewCond(&h.mu)
	h.scale.Store(math.Float64bits(1.0))
	return h
}

func (h *HID) match(d *usbhid.Device) bool {
	if h.vid != 0 {
		return d.VendorId() == h.vid && (h.pid == 0 || d.ProductId() == h.pid)
	}
	for _, v := range SpaceVendorIDs {
		if d.VendorId() == v {
			return true
		}
	}
	return false
}

func (h *HID) Open() error {
	dev, err := usbhid.Get(h.match, true, false)
	if err != nil {
		return fmt.Errorf("open hid device: %w", err)
	}

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		dev.Close()
		return fmt.Errorf("notify pipe: %w", err)
	}
	unix.SetNonblock(p[0], true)
	unix.SetNonblock(p[1], true)

	h.dev = dev
	h.notifyR, h.notifyW = p[0], p[1]
	h.queue = nil
	h.closed = false
	h.readErr = nil
	h.haveTrans = false
	h.buttons = 0
	h.lastMotion = time.Time{}

	slog.Debug("opened hid device",
		slog.String("path", dev.Path()),
		slog.String("product", dev.Product()))

	go h.readLoop(dev)
	return nil
}

func (h *HID) Close() error {
	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()

	if h.notifyR >= 0 {
		unix.Close(h.notifyR)
		unix.Close(h.notifyW)
		h.notifyR, h.notifyW = -1, -1
	}
	if h.dev == nil {
		return nil
	}
	dev := h.dev
	h.dev = nil
	if err := dev.Close(); err != nil {
		return fmt.Errorf("close hid device: %w", err)
	}
	return nil
}

// Fd reports the read end of the readiness pipe: it becomes readable when
// events are queued, so callers can multiplex on it like on the daemon
// socket. The pipe is advisory; Wait/Poll do the actual delivery.
func (h *HID) Fd() (int, error) {
	if h.notifyR < 0 {
		return -1, errors.New("no open driver connection")
	}
	return h.notifyR, nil
}

func (h *HID) WaitEvent(ev *RawEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.queue) == 0 {
		if h.closed {
			if h.readErr != nil {
				return fmt.Errorf("read hid device: %w", h.readErr)
			}
			return errors.New("driver connection closed")
		}
		h.cond.Wait()
	}
	*ev = h.pop()
	return nil
}

func (h *HID) PollEvent(ev *RawEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		return false
	}
	*ev = h.pop()
	return true
}

func (h *HID) RemoveEvents(kind int32) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	kept := h.queue[:0]
	for _, qe := range h.queue {
		if kind == KindAny || qe.Kind == kind {
			removed++
			var b [1]byte
			unix.Read(h.notifyR, b[:])
		} else {
			kept = append(kept, qe)
		}
	}
	h.queue = kept
	return removed
}

// SetSensitivity scales decoded motion values client-side; there is no
// daemon to do it for us in direct mode.
func (h *HID) SetSensitivity(sens float64) error {
	if sens <= 0 {
		return fmt.Errorf("sensitivity must be positive, got %v", sens)
	}
	h.scale.Store(math.Float64bits(sens))
	return nil
}

func (h *HID) readLoop(dev *usbhid.Device) {
	for {
		id, data, err := dev.GetInputReport()
		if err != nil {
			h.mu.Lock()
			if !h.closed {
				h.closed = true
				h.readErr = err
			}
			h.cond.Broadcast()
			h.mu.Unlock()
			return
		}
		for _, ev := range h.handleReport(id, data) {
			h.enqueue(ev)
		}
	}
}

func (h *HID) handleReport(id byte, data []byte) []RawEvent {
	switch id {
	case reportTranslation:
		if len(data) >= 12 {
			return []RawEvent{h.motionEvent(triple(data[0:6]), triple(data[6:12]))}
		}
		if len(data) >= 6 {
			h.trans = triple(data)
			h.haveTrans = true
		}
		return nil
	case reportRotation:
		if len(data) < 6 || !h.haveTrans {
			return nil
		}
		h.haveTrans = false
		return []RawEvent{h.motionEvent(h.trans, triple(data))}
	case reportButtons:
		if len(data) == 0 {
			return nil
		}
		var cur uint32
		for i := 0; i < len(data) && i < 4; i++ {
			cur |= uint32(data[i]) << (8 * uint(i))
		}
		evs := buttonChanges(h.buttons, cur)
		h.buttons = cur
		return evs
	}
	return nil
}

func (h *HID) motionEvent(t, r [3]int32) RawEvent {
	scale := math.Float64frombits(h.scale.Load())
	ev := RawEvent{Kind: KindMotion}
	for i := 0; i < 3; i++ {
		ev.Data[i] = int32(float64(t[i]) * scale)
		ev.Data[3+i] = int32(float64(r[i]) * scale)
	}
	now := time.Now()
	if !h.lastMotion.IsZero() {
		ev.Data[6] = int32(now.Sub(h.lastMotion) / time.Millisecond)
	}
	h.lastMotion = now
	return ev
}

func (h *HID) enqueue(ev RawEvent) {
	h.mu.Lock()
	h.queue = append(h.queue, ev)
	h.cond.Signal()
	h.mu.Unlock()

	var b [1]byte
	unix.Write(h.notifyW, b[:]) // best-effort readiness poke
}

func (h *HID) pop() RawEvent {
	ev := h.queue[0]
	h.queue = h.queue[1:]
	var b [1]byte
	unix.Read(h.notifyR, b[:])
	return ev
}

// triple decodes three consecutive little-endian int16 axis values.
func triple(b []byte) [3]int32 {
	return [3]int32{
		int32(int16(binary.LittleEndian.Uint16(b[0:]))),
		int32(int16(binary.LittleEndian.Uint16(b[2:]))),
		int32(int16(binary.LittleEndian.Uint16(b[4:]))),
	}
}

// buttonChanges emits one button record per bit that differs between two
// bitmask snapshots.
func buttonChanges(prev, cur uint32) []RawEvent {
	var evs []RawEvent
	for i := 0; i < 32; i++ {
		bit := uint32(1) << uint(i)
		if prev&bit == cur&bit {
			continue
		}
		ev := RawEvent{Kind: KindButton}
		if cur&bit != 0 {
			ev.Data[0] = 1
		}
		ev.Data[1] = int32(i)
		evs = append(evs, ev)
	}
	return evs
}
