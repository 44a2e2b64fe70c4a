package protocol

import (
	"encoding/json"
	"fmt"
)

// DecodeEnvelope parses one text frame into a validated Envelope.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// DecodeActionCall interprets envelope data as an ActionCall.
func DecodeActionCall(env Envelope) (ActionCall, error) {
	if env.Type != TypeAction {
		return ActionCall{}, typeMismatch(env.Type, TypeAction)
	}
	var call ActionCall
	if err := json.Unmarshal(env.Data, &call); err != nil {
		return ActionCall{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if err := call.Validate(); err != nil {
		return ActionCall{}, err
	}
	return call, nil
}

// DecodeActionResult interprets envelope data as an ActionResult.
func DecodeActionResult(env Envelope) (ActionResult, error) {
	if env.Type != TypeActionResult {
		return ActionResult{}, typeMismatch(env.Type, TypeActionResult)
	}
	var res ActionResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return ActionResult{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if err := res.Validate(); err != nil {
		return ActionResult{}, err
	}
	return res, nil
}

// DecodeRegisterActions interprets envelope data as a RegisterActions.
func DecodeRegisterActions(env Envelope) (RegisterActions, error) {
	if env.Type != TypeRegisterActions {
		return RegisterActions{}, typeMismatch(env.Type, TypeRegisterActions)
	}
	var reg RegisterActions
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		return RegisterActions{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if err := reg.Validate(); err != nil {
		return RegisterActions{}, err
	}
	return reg, nil
}

// EncodeActionCall wraps and marshals a call request frame.
func EncodeActionCall(call ActionCall) ([]byte, error) {
	if err := call.Validate(); err != nil {
		return nil, err
	}
	return encodeEnvelope(TypeAction, call)
}

// EncodeActionResult wraps and marshals a call result frame.
func EncodeActionResult(res ActionResult) ([]byte, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return encodeEnvelope(TypeActionResult, res)
}

// EncodeRegisterActions wraps and marshals a registration frame.
func EncodeRegisterActions(reg RegisterActions) ([]byte, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return encodeEnvelope(TypeRegisterActions, reg)
}

func encodeEnvelope(typ MessageType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return json.Marshal(Envelope{Type: typ, Data: raw})
}

func typeMismatch(got, want MessageType) error {
	return fmt.Errorf("%w: decoding %q as %q", ErrUnknownMessageType, string(got), string(want))
}
