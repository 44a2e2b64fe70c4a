package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/wisp/protocol"
	"github.com/danmuck/wisp/toolkit"
)

type echoArgs struct {
	Content string `json:"content"`
}

func newEchoAction() toolkit.Handler {
	def := protocol.ActionDefinition{
		Description: "Echo the message, prefixed with the calling agent id",
		Payload: map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The content to echo back.",
				"required":    true,
			},
		},
	}
	return toolkit.NewTyped("echo", def,
		func(ctx context.Context, call *toolkit.Call, params toolkit.Params[echoArgs]) (toolkit.Result[string], error) {
			out := fmt.Sprintf("You are agent <$%d>, you said \"%s\".", call.AgentID, params.Payload.Content)
			return toolkit.Result[string]{Payload: out}, nil
		})
}

type clockOutput struct {
	Now  string `json:"now"`
	Unix int64  `json:"unix"`
}

func newClockAction() toolkit.Handler {
	def := protocol.ActionDefinition{
		Description: "Report the current time in UTC",
	}
	return toolkit.NewTyped("clock", def,
		func(ctx context.Context, call *toolkit.Call, params toolkit.Params[struct{}]) (toolkit.Result[clockOutput], error) {
			now := time.Now().UTC()
			return toolkit.Result[clockOutput]{Payload: clockOutput{
				Now:  now.Format(time.RFC3339),
				Unix: now.Unix(),
			}}, nil
		})
}

func builtinActions() map[string]func() toolkit.Handler {
	return map[string]func() toolkit.Handler{
		"echo":  newEchoAction,
		"clock": newClockAction,
	}
}

func defaultActionNames() []string {
	builtins := builtinActions()
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registerBuiltins(svc *toolkit.Service, names []string) error {
	builtins := builtinActions()
	for _, name := range names {
		construct, ok := builtins[name]
		if !ok {
			return fmt.Errorf("unknown builtin action %q (available: %s)", name, strings.Join(defaultActionNames(), ", "))
		}
		if err := svc.Register(construct()); err != nil {
			return err
		}
	}
	return nil
}
