package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MessageType discriminates the envelopes exchanged with the backend.
type MessageType string

const (
	// TypeAction is a backend-to-toolkit request to run one registered action.
	TypeAction MessageType = "action"
	// TypeActionResult is a toolkit-to-backend reply carrying one call outcome.
	TypeActionResult MessageType = "actionResult"
	// TypeRegisterActions advertises the toolkit's action set after connect.
	TypeRegisterActions MessageType = "registerActions"
)

// Envelope is the tagged union carried on every text frame.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Validate checks the envelope is structurally usable before the data
// payload is interpreted.
func (e Envelope) Validate() error {
	switch e.Type {
	case TypeAction, TypeActionResult, TypeRegisterActions:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, string(e.Type))
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: type %q", ErrEmptyData, string(e.Type))
	}
	return nil
}

// ActionCall asks the toolkit to run one action on behalf of an agent.
// Payload stays raw here; the handler layer decides how to interpret it,
// including the case where it arrives as a string of encoded JSON.
type ActionCall struct {
	Action   string          `json:"action"`
	ActionID uint64          `json:"actionID"`
	AgentID  uint64          `json:"agentID"`
	Payload  json.RawMessage `json:"payload"`
	Payment  *uint64         `json:"payment"`
}

func (c ActionCall) Validate() error {
	if strings.TrimSpace(c.Action) == "" {
		return fmt.Errorf("%w: action call", ErrBlankAction)
	}
	return nil
}

// ActionResult reports one call outcome back to the backend. The
// (Action, ActionID, AgentID) triple must equal the originating call's.
type ActionResult struct {
	Action   string          `json:"action"`
	ActionID uint64          `json:"actionID"`
	AgentID  uint64          `json:"agentID"`
	Payload  json.RawMessage `json:"payload"`
	Payment  *uint64         `json:"payment"`
}

func (r ActionResult) Validate() error {
	if strings.TrimSpace(r.Action) == "" {
		return fmt.Errorf("%w: action result", ErrBlankAction)
	}
	return nil
}

// ActionDefinition describes one action for registration and discovery.
// Payload carries the action's parameter schema; Payment, when present,
// describes pricing. Both are opaque to this layer.
type ActionDefinition struct {
	Description string `json:"description"`
	Payload     any    `json:"payload"`
	Payment     any    `json:"payment"`
}

// RegisterActions advertises every action the toolkit serves. Sent once,
// immediately after the connection is established. An empty action set is
// legal; the backend simply has nothing to route.
type RegisterActions struct {
	Actions map[string]ActionDefinition `json:"actions"`
}

func (r RegisterActions) Validate() error {
	for name := range r.Actions {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: registration", ErrBlankAction)
		}
	}
	return nil
}
