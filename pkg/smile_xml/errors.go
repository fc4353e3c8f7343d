package smile_xml

import "errors"

// Errors surfaced across the package boundary. Callers match with errors.Is.
var (
	// ErrMalformedResponse: the gateway returned XML that could not be parsed,
	// contained entity declarations, or had an unexpected root element.
	ErrMalformedResponse = errors.New("smile: malformed response")

	// ErrIncompleteResponse: the XML parsed but a mandatory section
	// (the gateway node) is missing.
	ErrIncompleteResponse = errors.New("smile: incomplete response")

	// ErrUnsupportedDevice: the gateway model/firmware combination is not in
	// the supported set.
	ErrUnsupportedDevice = errors.New("smile: unsupported device")

	// ErrOutOfRangeValue: a setpoint outside the advertised bounds or not on
	// the resolution grid.
	ErrOutOfRangeValue = errors.New("smile: value out of range")

	// ErrWrongSetpointType: a heating setpoint was given while the device is
	// in an active cooling mode, or vice versa.
	ErrWrongSetpointType = errors.New("smile: wrong setpoint type")

	// ErrUnsupportedOperation: the gateway does not advertise the requested
	// mode list on this firmware.
	ErrUnsupportedOperation = errors.New("smile: operation not supported")

	// ErrUnknownTarget: the target identifier is not present in the current
	// device map.
	ErrUnknownTarget = errors.New("smile: unknown target")
)
