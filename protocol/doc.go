// Package protocol defines the JSON envelopes a toolkit exchanges with
// the wisp backend over its WebSocket link, plus the strict decode
// helpers the session loop relies on.
//
// Every frame is a tagged union: {"type": <MessageType>, "data": {...}}.
// Field spellings follow the backend contract exactly; in particular the
// call identifiers are actionID and agentID, and payment fields are
// emitted as null when absent rather than omitted.
package protocol
