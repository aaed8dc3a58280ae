package spnav

import "errors"

var (
	// ErrConnect indicates the driver's open call failed; no connection
	// was established and nothing needs releasing.
	ErrConnect = errors.New("spnav: connecting to the driver failed")

	// ErrNoDescriptor indicates the driver could not report a valid
	// descriptor for the open connection.
	ErrNoDescriptor = errors.New("spnav: driver reported no descriptor")

	// ErrWaitFailed indicates a blocking wait terminated without an
	// event, usually because the driver connection went away.
	ErrWaitFailed = errors.New("spnav: wait for event terminated")

	// ErrUnknownEvent indicates the driver delivered a record whose
	// discriminant this library does not recognize.
	ErrUnknownEvent = errors.New("spnav: unrecognized event record")
)
