// wispcall is a small operator console for the wisp HTTP API: search
// the action catalog, call one action, or update a toolkit profile.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/wisp/api"
	"github.com/danmuck/wisp/config"
	"github.com/danmuck/wisp/internal/logging"
)

const usageText = `usage:
  wispcall [flags] search <query...>
  wispcall [flags] call <action> [payload]
  wispcall [flags] update-info -name <name> [-description <text>]

flags:
`

type callOptions struct {
	limit       int
	payment     uint64
	name        string
	description string
}

func main() {
	var (
		opts    callOptions
		timeout time.Duration
	)
	flag.IntVar(&opts.limit, "limit", 0, "max search results (0 = backend default)")
	flag.Uint64Var(&opts.payment, "payment", 0, "payment amount attached to the call (0 = none)")
	flag.StringVar(&opts.name, "name", "", "toolkit name for update-info")
	flag.StringVar(&opts.description, "description", "", "toolkit description for update-info")
	flag.DurationVar(&timeout, "timeout", time.Minute, "overall request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.ConfigureRuntime()

	client, err := api.NewClient(config.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "wispcall: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := run(ctx, client, flag.Args(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wispcall: %v\n", err)
		os.Exit(1)
	}
	if out != "" {
		fmt.Println(out)
	}
}

func run(ctx context.Context, client *api.Client, args []string, opts callOptions) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing command (search, call or update-info)")
	}
	switch args[0] {
	case "search":
		if len(args) < 2 {
			return "", errors.New("search requires a query")
		}
		raw, err := client.SearchActions(ctx, strings.Join(args[1:], " "), opts.limit)
		if err != nil {
			return "", err
		}
		return string(raw), nil

	case "call":
		if len(args) < 2 {
			return "", errors.New("call requires an action name")
		}
		payloadArg := ""
		if len(args) > 2 {
			payloadArg = args[2]
		}
		var payment *uint64
		if opts.payment > 0 {
			payment = &opts.payment
		}
		raw, err := client.CallAction(ctx, args[1], parsePayloadArg(payloadArg), payment)
		if err != nil {
			return "", err
		}
		return string(raw), nil

	case "update-info":
		if strings.TrimSpace(opts.name) == "" {
			return "", errors.New("update-info requires -name")
		}
		info := api.ToolkitInfo{Name: opts.name, Description: opts.description}
		if err := client.UpdateInfo(ctx, info); err != nil {
			return "", err
		}
		return "toolkit profile updated", nil

	default:
		return "", fmt.Errorf("unknown command %q", args[0])
	}
}

// parsePayloadArg keeps valid JSON arguments as-is and wraps anything
// else as a JSON string, so `wispcall call echo 'hello there'` works
// without shell-quoted JSON.
func parsePayloadArg(arg string) any {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	return arg
}
