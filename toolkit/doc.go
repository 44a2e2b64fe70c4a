// Package toolkit runs wisp toolkits: named actions registered with the
// backend over one WebSocket session and served to agents until the peer
// hangs up.
//
// A Service owns the action Registry and repeatedly drives Sessions
// according to its ReconnectPolicy. A Session dials, registers the
// action set once, then serves calls from a single dispatch loop; every
// call runs in its own goroutine and results are reported in completion
// order. Handlers are usually built with NewTyped, which decodes the
// wire payload into the handler's parameter type and encodes its output
// back into a result frame.
package toolkit
