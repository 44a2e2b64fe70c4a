package toolkit

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/danmuck/wisp/protocol"
)

// HandlerErrorMessage is the only detail an agent sees when a call
// fails. The real error stays in the toolkit's logs.
const HandlerErrorMessage = "An unexpected error occurred, please report to the toolkit developer"

// RawParams is the wire-level input to one handler invocation.
type RawParams struct {
	Payload json.RawMessage
	Payment *uint64
}

// RawResult is the wire-level output of one handler invocation.
type RawResult struct {
	Payload json.RawMessage
	Payment *uint64
}

// Handler is one callable action. Implementations must be safe for
// concurrent calls; the session dispatches without any serialization.
type Handler interface {
	// Name returns the action's unique name.
	Name() string
	// Definition describes the action for registration and discovery.
	Definition(ctx context.Context) (protocol.ActionDefinition, error)
	// Call runs the action. Failures are reported as *DecodeError,
	// *EncodeError or *HandlerError; the session maps all three to an
	// error-description result and keeps serving.
	Call(ctx context.Context, call *Call, params RawParams) (RawResult, error)
}

// Params carries one decoded call input.
type Params[A any] struct {
	Payload A
	Payment *uint64
}

// Result carries one handler output.
type Result[O any] struct {
	Payload O
	Payment *uint64
}

// TypedFunc is the body of a Typed action.
type TypedFunc[A, O any] func(ctx context.Context, call *Call, params Params[A]) (Result[O], error)

// Typed adapts a strongly typed handler into a Handler.
type Typed[A, O any] struct {
	name string
	def  protocol.ActionDefinition
	fn   TypedFunc[A, O]
}

// NewTyped builds a Handler from a static definition and a typed body.
func NewTyped[A, O any](name string, def protocol.ActionDefinition, fn TypedFunc[A, O]) *Typed[A, O] {
	return &Typed[A, O]{name: name, def: def, fn: fn}
}

func (t *Typed[A, O]) Name() string { return t.name }

func (t *Typed[A, O]) Definition(ctx context.Context) (protocol.ActionDefinition, error) {
	return t.def, nil
}

func (t *Typed[A, O]) Call(ctx context.Context, call *Call, params RawParams) (RawResult, error) {
	args, err := decodePayload[A](params.Payload)
	if err != nil {
		return RawResult{}, &DecodeError{Err: err}
	}

	out, err := t.fn(ctx, call, Params[A]{Payload: args, Payment: params.Payment})
	if err != nil {
		return RawResult{}, &HandlerError{Err: err}
	}

	raw, err := json.Marshal(out.Payload)
	if err != nil {
		return RawResult{}, &EncodeError{Err: err}
	}
	return RawResult{Payload: raw, Payment: out.Payment}, nil
}

// decodePayload accepts both wire forms an agent may send: the payload
// value itself, or a JSON string whose contents encode that value. A
// string payload must parse; there is no fallback to treating it as A.
func decodePayload[A any](raw json.RawMessage) (A, error) {
	var args A
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return args, nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return args, err
		}
		err := json.Unmarshal([]byte(inner), &args)
		return args, err
	}
	err := json.Unmarshal(trimmed, &args)
	return args, err
}

// errorResult builds the uniform failure reply for call, preserving the
// (action, actionID, agentID) identity triple.
func errorResult(call protocol.ActionCall) protocol.ActionResult {
	payload, _ := json.Marshal(map[string]string{"error": HandlerErrorMessage})
	return protocol.ActionResult{
		Action:   call.Action,
		ActionID: call.ActionID,
		AgentID:  call.AgentID,
		Payload:  payload,
	}
}
