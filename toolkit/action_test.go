package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/danmuck/wisp/internal/testutil/testlog"
	"github.com/danmuck/wisp/protocol"
)

type greetArgs struct {
	Name  string `json:"name"`
	Times int    `json:"times"`
}

type greetOutput struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func newGreetHandler() Handler {
	return NewTyped("greet", protocol.ActionDefinition{Description: "Greets by name"},
		func(ctx context.Context, call *Call, params Params[greetArgs]) (Result[greetOutput], error) {
			return Result[greetOutput]{
				Payload: greetOutput{Message: "hello " + params.Payload.Name, Count: params.Payload.Times},
				Payment: params.Payment,
			}, nil
		})
}

func TestTypedDecodesValueAndStringForms(t *testing.T) {
	testlog.Start(t)

	h := newGreetHandler()
	value := json.RawMessage(`{"name":"ada","times":3}`)
	stringForm := json.RawMessage(`"{\"name\":\"ada\",\"times\":3}"`)

	fromValue, err := h.Call(context.Background(), &Call{}, RawParams{Payload: value})
	if err != nil {
		t.Fatalf("value form: %v", err)
	}
	fromString, err := h.Call(context.Background(), &Call{}, RawParams{Payload: stringForm})
	if err != nil {
		t.Fatalf("string form: %v", err)
	}
	if string(fromValue.Payload) != string(fromString.Payload) {
		t.Fatalf("forms disagree: %s vs %s", fromValue.Payload, fromString.Payload)
	}
}

func TestTypedOutputRoundTripsThroughGenericDecode(t *testing.T) {
	testlog.Start(t)

	h := newGreetHandler()
	out, err := h.Call(context.Background(), &Call{}, RawParams{Payload: json.RawMessage(`{"name":"ada","times":2}`)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(out.Payload, &generic); err != nil {
		t.Fatalf("generic decode: %v", err)
	}
	if generic["message"] != "hello ada" || generic["count"] != float64(2) {
		t.Fatalf("generic = %v", generic)
	}
}

func TestTypedDecodeErrorKinds(t *testing.T) {
	testlog.Start(t)

	h := newGreetHandler()

	_, err := h.Call(context.Background(), &Call{}, RawParams{Payload: json.RawMessage(`{"times":"three"}`)})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}

	// A string payload must itself parse as JSON; no fallback.
	_, err = h.Call(context.Background(), &Call{}, RawParams{Payload: json.RawMessage(`"not json at all"`)})
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}

func TestTypedHandlerErrorKind(t *testing.T) {
	testlog.Start(t)

	boom := errors.New("downstream exploded")
	h := NewTyped("boom", protocol.ActionDefinition{},
		func(ctx context.Context, call *Call, params Params[struct{}]) (Result[string], error) {
			return Result[string]{}, boom
		})

	_, err := h.Call(context.Background(), &Call{}, RawParams{Payload: json.RawMessage(`{}`)})
	var handlerErr *HandlerError
	if !errors.As(err, &handlerErr) {
		t.Fatalf("err = %v, want *HandlerError", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
}

func TestTypedEncodeErrorKind(t *testing.T) {
	testlog.Start(t)

	h := NewTyped("bad-output", protocol.ActionDefinition{},
		func(ctx context.Context, call *Call, params Params[struct{}]) (Result[chan int], error) {
			return Result[chan int]{Payload: make(chan int)}, nil
		})

	_, err := h.Call(context.Background(), &Call{}, RawParams{Payload: json.RawMessage(`{}`)})
	var encodeErr *EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("err = %v, want *EncodeError", err)
	}
}

func TestTypedPaymentPassthrough(t *testing.T) {
	testlog.Start(t)

	payment := uint64(25)
	h := newGreetHandler()
	out, err := h.Call(context.Background(), &Call{}, RawParams{
		Payload: json.RawMessage(`{"name":"ada"}`),
		Payment: &payment,
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.Payment == nil || *out.Payment != payment {
		t.Fatalf("payment = %v, want %d", out.Payment, payment)
	}
}

func TestTypedEmptyAndNullPayloads(t *testing.T) {
	testlog.Start(t)

	h := newGreetHandler()
	for _, payload := range []json.RawMessage{nil, json.RawMessage(`null`)} {
		out, err := h.Call(context.Background(), &Call{}, RawParams{Payload: payload})
		if err != nil {
			t.Fatalf("payload %q: %v", payload, err)
		}
		var got greetOutput
		if err := json.Unmarshal(out.Payload, &got); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if got.Message != "hello " {
			t.Fatalf("message = %q", got.Message)
		}
	}
}

func TestErrorResultShape(t *testing.T) {
	testlog.Start(t)

	call := protocol.ActionCall{Action: "greet", ActionID: 5, AgentID: 11}
	res := errorResult(call)
	if res.Action != "greet" || res.ActionID != 5 || res.AgentID != 11 {
		t.Fatalf("identity = %+v", res)
	}
	var payload map[string]string
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["error"] != HandlerErrorMessage {
		t.Fatalf("error = %q, want %q", payload["error"], HandlerErrorMessage)
	}
	if res.Payment != nil {
		t.Fatalf("payment = %v, want nil", res.Payment)
	}
}
