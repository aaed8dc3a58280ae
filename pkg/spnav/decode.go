package spnav

import (
	"fmt"

	"github.com/seagrayinc/spnav/internal/driver"
)

// decodeEvent maps one raw driver record onto the event model. The result
// shares no storage with the record; bindings reuse the record buffer on
// the next call.
func decodeEvent(raw driver.RawEvent) (Event, error) {
	switch raw.Kind {
	case driver.KindMotion:
		return MotionEvent{
			X:      raw.Data[0],
			Y:      raw.Data[1],
			Z:      raw.Data[2],
			RX:     raw.Data[3],
			RY:     raw.Data[4],
			RZ:     raw.Data[5],
			Period: uint32(raw.Data[6]),
		}, nil
	case driver.KindButton:
		return ButtonEvent{
			Press: raw.Data[0] != 0,
			Num:   raw.Data[1],
		}, nil
	}
	return nil, fmt.Errorf("%w: discriminant %d", ErrUnknownEvent, raw.Kind)
}
