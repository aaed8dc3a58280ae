package spnav

import (
	"errors"
	"testing"

	"github.com/seagrayinc/spnav/internal/driver"
)

func TestDecodeMotion(t *testing.T) {
	raw := driver.RawEvent{
		Kind: driver.KindMotion,
		Data: [7]int32{1, -2, 3, 0, 5, -5, 16},
	}

	ev, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	motion, ok := ev.(MotionEvent)
	if !ok {
		t.Fatalf("decoded %T, want MotionEvent", ev)
	}
	if ev.Type() != EventMotion {
		t.Fatalf("type = %v, want motion", ev.Type())
	}
	if x, y, z := motion.Translation(); x != 1 || y != -2 || z != 3 {
		t.Errorf("translation = (%d,%d,%d), want (1,-2,3)", x, y, z)
	}
	if rx, ry, rz := motion.Rotation(); rx != 0 || ry != 5 || rz != -5 {
		t.Errorf("rotation = (%d,%d,%d), want (0,5,-5)", rx, ry, rz)
	}
	if motion.Period != 16 {
		t.Errorf("period = %d, want 16", motion.Period)
	}
}

func TestDecodeButton(t *testing.T) {
	tests := []struct {
		name  string
		press int32
		bnum  int32
		want  ButtonEvent
	}{
		{"press", 1, 2, ButtonEvent{Press: true, Num: 2}},
		{"release", 0, 2, ButtonEvent{Press: false, Num: 2}},
		{"nonzero press flag", 5, 0, ButtonEvent{Press: true, Num: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := driver.RawEvent{
				Kind: driver.KindButton,
				Data: [7]int32{tt.press, tt.bnum},
			}
			ev, err := decodeEvent(raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			button, ok := ev.(ButtonEvent)
			if !ok {
				t.Fatalf("decoded %T, want ButtonEvent", ev)
			}
			if button != tt.want {
				t.Fatalf("decoded %+v, want %+v", button, tt.want)
			}
		})
	}
}

func TestDecodeUnknownDiscriminant(t *testing.T) {
	for _, kind := range []int32{0, 3, -1, 99} {
		raw := driver.RawEvent{Kind: kind, Data: [7]int32{1, 2, 3, 4, 5, 6, 7}}
		ev, err := decodeEvent(raw)
		if !errors.Is(err, ErrUnknownEvent) {
			t.Errorf("kind %d: error = %v, want ErrUnknownEvent", kind, err)
		}
		if ev != nil {
			t.Errorf("kind %d: decoded a partial event %+v", kind, ev)
		}
	}
}

func TestEventTypeString(t *testing.T) {
	if EventMotion.String() != "motion" || EventButton.String() != "button" || EventAny.String() != "any" {
		t.Fatal("event type names wrong")
	}
	if EventType(9).String() != "unknown" {
		t.Fatal("out-of-range event type must stringify as unknown")
	}
}
