package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/wisp/api"
	"github.com/danmuck/wisp/config"
	"github.com/danmuck/wisp/internal/testutil/testlog"
)

func TestCallCreateTransactionRequiresClient(t *testing.T) {
	testlog.Start(t)

	call := &Call{Action: "echo", ActionID: 1, AgentID: 2}
	if _, err := call.CreateTransaction(context.Background(), "call_payment", nil); !errors.Is(err, ErrNoAPIClient) {
		t.Fatalf("err = %v, want ErrNoAPIClient", err)
	}
}

func TestCallCreateTransactionShape(t *testing.T) {
	testlog.Start(t)

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"tx":"0xabc"}`))
	}))
	defer srv.Close()

	client, err := api.NewClient(config.Config{
		APIKey: "test-key",
		Endpoints: config.Endpoints{
			BackendWS:   "ws://127.0.0.1:1/ws",
			Transaction: srv.URL,
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	call := &Call{Action: "echo", ActionID: 7, AgentID: 42, api: client}
	raw, err := call.CreateTransaction(context.Background(), "call_payment", map[string]any{"amount": 5})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if string(raw) != `{"tx":"0xabc"}` {
		t.Fatalf("response = %s", raw)
	}

	if gotPath != "/tx/create" {
		t.Fatalf("path = %q, want /tx/create", gotPath)
	}
	if gotBody["agentId"] != float64(42) || gotBody["actionId"] != float64(7) {
		t.Fatalf("identity = %v", gotBody)
	}
	if gotBody["actionName"] != "echo" || gotBody["type"] != "call_payment" {
		t.Fatalf("descriptor = %v", gotBody)
	}
	payload, ok := gotBody["payload"].(map[string]any)
	if !ok || payload["amount"] != float64(5) {
		t.Fatalf("payload = %v", gotBody["payload"])
	}
}
