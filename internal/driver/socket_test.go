//go:build !windows

package driver

import (
	"encoding/binary"
	"math"
	"testing"

	"golang.org/x/sys/unix"
)

// socketPair returns a Socket bound to one end of a socketpair and the
// peer descriptor standing in for the daemon.
func socketPair(t *testing.T) (*Socket, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	s := NewSocket("")
	s.fd = fds[0]
	return s, fds[1]
}

func writePacket(t *testing.T, fd int, words [8]int32) {
	t.Helper()
	var buf [packetSize]byte
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(w))
	}
	if _, err := unix.Write(fd, buf[:]); err != nil {
		t.Fatalf("write packet: %v", err)
	}
}

func TestSocketPollEmpty(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	var ev RawEvent
	if s.PollEvent(&ev) {
		t.Fatalf("poll on empty socket returned %+v", ev)
	}
}

func TestSocketPollMotion(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	writePacket(t, peer, [8]int32{wireMotion, 1, -2, 3, 0, 5, -5, 16})

	var ev RawEvent
	if !s.PollEvent(&ev) {
		t.Fatal("poll missed a queued packet")
	}
	if ev.Kind != KindMotion {
		t.Fatalf("kind = %d, want motion", ev.Kind)
	}
	if want := [7]int32{1, -2, 3, 0, 5, -5, 16}; ev.Data != want {
		t.Fatalf("payload = %v, want %v", ev.Data, want)
	}
}

func TestSocketPollPartialPacket(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	var buf [packetSize]byte
	words := [8]int32{wireMotion, 1, 2, 3, 4, 5, 6, 7}
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(w))
	}

	// Half a packet must not produce an event, and must not be thrown
	// away either.
	if _, err := unix.Write(peer, buf[:16]); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ev RawEvent
	if s.PollEvent(&ev) {
		t.Fatal("poll fabricated an event from half a packet")
	}
	if _, err := unix.Write(peer, buf[16:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !s.PollEvent(&ev) {
		t.Fatal("poll missed the completed packet")
	}
	if ev.Kind != KindMotion || ev.Data[0] != 1 {
		t.Fatalf("reassembled packet decoded as %+v", ev)
	}
}

func TestSocketButtonPressRelease(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	writePacket(t, peer, [8]int32{wirePress, 2, 0, 0, 0, 0, 0, 0})
	writePacket(t, peer, [8]int32{wireRelease, 2, 0, 0, 0, 0, 0, 0})

	var ev RawEvent
	if !s.PollEvent(&ev) || ev.Kind != KindButton || ev.Data[0] != 1 || ev.Data[1] != 2 {
		t.Fatalf("press decoded as %+v", ev)
	}
	if !s.PollEvent(&ev) || ev.Kind != KindButton || ev.Data[0] != 0 || ev.Data[1] != 2 {
		t.Fatalf("release decoded as %+v", ev)
	}
}

func TestSocketUnknownPacketPassesThrough(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	writePacket(t, peer, [8]int32{7, 1, 2, 3, 4, 5, 6, 8})

	var ev RawEvent
	if !s.PollEvent(&ev) {
		t.Fatal("poll missed the packet")
	}
	if ev.Kind != 7 {
		t.Fatalf("kind = %d, want the unknown discriminant 7 preserved", ev.Kind)
	}
}

func TestSocketWaitDelivers(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	writePacket(t, peer, [8]int32{wireMotion, 9, 8, 7, 6, 5, 4, 3})

	var ev RawEvent
	if err := s.WaitEvent(&ev); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if ev.Kind != KindMotion || ev.Data[0] != 9 {
		t.Fatalf("wait delivered %+v", ev)
	}
}

func TestSocketWaitTerminates(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()

	errc := make(chan error, 1)
	go func() {
		var ev RawEvent
		errc <- s.WaitEvent(&ev)
	}()

	unix.Close(peer)
	if err := <-errc; err == nil {
		t.Fatal("wait returned no error after the daemon went away")
	}
}

func TestSocketRemoveEvents(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	writePacket(t, peer, [8]int32{wireMotion, 1, 0, 0, 0, 0, 0, 8})
	writePacket(t, peer, [8]int32{wirePress, 0, 0, 0, 0, 0, 0, 0})
	writePacket(t, peer, [8]int32{wireMotion, 2, 0, 0, 0, 0, 0, 8})

	if n := s.RemoveEvents(KindMotion); n != 2 {
		t.Fatalf("removed %d motion events, want 2", n)
	}

	// The button record survives, set aside on the client-side queue.
	var ev RawEvent
	if !s.PollEvent(&ev) || ev.Kind != KindButton {
		t.Fatalf("surviving event = %+v, want the button record", ev)
	}
	if s.PollEvent(&ev) {
		t.Fatalf("unexpected extra event %+v", ev)
	}

	writePacket(t, peer, [8]int32{wireMotion, 3, 0, 0, 0, 0, 0, 8})
	writePacket(t, peer, [8]int32{wireRelease, 0, 0, 0, 0, 0, 0, 0})
	if n := s.RemoveEvents(KindAny); n != 2 {
		t.Fatalf("removed %d events, want 2", n)
	}
	if s.PollEvent(&ev) {
		t.Fatalf("poll returned %+v after a full discard", ev)
	}
}

func TestSocketSensitivityWireFormat(t *testing.T) {
	s, peer := socketPair(t)
	defer s.Close()
	defer unix.Close(peer)

	if err := s.SetSensitivity(0.5); err != nil {
		t.Fatalf("set sensitivity: %v", err)
	}

	var buf [4]byte
	n, err := unix.Read(peer, buf[:])
	if err != nil || n != 4 {
		t.Fatalf("read sensitivity packet: n=%d err=%v", n, err)
	}
	got := math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	if got != 0.5 {
		t.Fatalf("daemon would see sensitivity %v, want 0.5", got)
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		words [8]int32
		want  RawEvent
	}{
		{
			"motion",
			[8]int32{wireMotion, 1, -2, 3, 0, 5, -5, 16},
			RawEvent{Kind: KindMotion, Data: [7]int32{1, -2, 3, 0, 5, -5, 16}},
		},
		{
			"press",
			[8]int32{wirePress, 4, 0, 0, 0, 0, 0, 0},
			RawEvent{Kind: KindButton, Data: [7]int32{1, 4}},
		},
		{
			"release",
			[8]int32{wireRelease, 4, 0, 0, 0, 0, 0, 0},
			RawEvent{Kind: KindButton, Data: [7]int32{0, 4}},
		},
		{
			"unknown",
			[8]int32{42, 1, 2, 3, 4, 5, 6, 7},
			RawEvent{Kind: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate(tt.words); got != tt.want {
				t.Fatalf("translate = %+v, want %+v", got, tt.want)
			}
		})
	}
}
