package protocol

import "errors"

var (
	// ErrMalformedEnvelope marks bytes that do not parse as an envelope.
	ErrMalformedEnvelope = errors.New("protocol: malformed envelope")
	// ErrUnknownMessageType marks an envelope whose type tag is not ours.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	// ErrEmptyData marks an envelope with no data payload to interpret.
	ErrEmptyData = errors.New("protocol: empty envelope data")
	// ErrMalformedData marks envelope data that does not parse as the
	// shape its type tag promises.
	ErrMalformedData = errors.New("protocol: malformed envelope data")
	// ErrBlankAction marks a message naming no action.
	ErrBlankAction = errors.New("protocol: blank action name")
)
