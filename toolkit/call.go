package toolkit

import (
	"context"
	"encoding/json"

	"github.com/danmuck/wisp/api"
)

// Call identifies one action invocation. Handlers receive it alongside
// their decoded parameters and may open transactions against it.
type Call struct {
	Action   string
	ActionID uint64
	AgentID  uint64

	api *api.Client
}

// CreateTransaction opens a transaction tied to this call, typically
// before doing paid work. Sessions built without an API client cannot
// create transactions.
func (c *Call) CreateTransaction(ctx context.Context, txType string, payload any) (json.RawMessage, error) {
	if c.api == nil {
		return nil, ErrNoAPIClient
	}
	return c.api.CreateTransaction(ctx, api.TransactionRequest{
		AgentID:    c.AgentID,
		ActionID:   c.ActionID,
		ActionName: c.Action,
		Type:       txType,
		Payload:    payload,
	})
}
