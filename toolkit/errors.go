package toolkit

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAction  = errors.New("toolkit: duplicate action")
	ErrActionNotFound   = errors.New("toolkit: action not found")
	ErrBlankActionName  = errors.New("toolkit: blank action name")
	ErrNilHandler       = errors.New("toolkit: nil handler")
	ErrServiceStarted   = errors.New("toolkit: service already started")
	ErrEndpointRequired = errors.New("toolkit: endpoint required")
	ErrAPIKeyRequired   = errors.New("toolkit: api key required")
	ErrRegistryRequired = errors.New("toolkit: registry required")
	ErrNoAPIClient      = errors.New("toolkit: no api client")
	ErrSessionReused    = errors.New("toolkit: session already run")
	ErrConnect          = errors.New("toolkit: connect failed")
	ErrRegister         = errors.New("toolkit: register failed")
	ErrReconnectPolicy  = errors.New("toolkit: unknown reconnect policy")
)

// DecodeError marks a call payload that would not decode into the
// handler's parameter type.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return fmt.Sprintf("toolkit: decode params: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError marks a handler output that would not encode for the wire.
type EncodeError struct{ Err error }

func (e *EncodeError) Error() string { return fmt.Sprintf("toolkit: encode output: %v", e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }

// HandlerError marks a failure returned by the action handler itself.
type HandlerError struct{ Err error }

func (e *HandlerError) Error() string { return fmt.Sprintf("toolkit: handler failed: %v", e.Err) }
func (e *HandlerError) Unwrap() error { return e.Err }
