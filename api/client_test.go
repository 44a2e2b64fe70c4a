package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/wisp/config"
	"github.com/danmuck/wisp/internal/testutil/testlog"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(config.Config{
		APIKey: "test-key",
		Endpoints: config.Endpoints{
			BackendWS:   "ws://unused.invalid/ws",
			BackendAPI:  srv.URL,
			FrontendAPI: srv.URL,
			Transaction: srv.URL,
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSearchActionsRequestShape(t *testing.T) {
	testlog.Start(t)

	var gotPath, gotQuery, gotLimit, gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotLimit = r.URL.Query().Get("limit")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`[{"action":"svc/1/lookup"}]`))
	}))
	defer srv.Close()

	raw, err := testClient(t, srv).SearchActions(context.Background(), "weather", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/actions/search" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "weather" || gotLimit != "10" {
		t.Fatalf("query = %q limit = %q", gotQuery, gotLimit)
	}
	if gotAuth != "test-key" {
		t.Fatalf("authorization = %q, want raw key", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("missing X-Request-Id")
	}

	var results []map[string]any
	if err := json.Unmarshal(raw, &results); err != nil {
		t.Fatalf("response not raw JSON: %v", err)
	}
}

func TestSearchActionsOmitsUnsetLimit(t *testing.T) {
	testlog.Start(t)

	var hasLimit bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasLimit = r.URL.Query()["limit"]
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := testClient(t, srv).SearchActions(context.Background(), "anything", 0); err != nil {
		t.Fatalf("search: %v", err)
	}
	if hasLimit {
		t.Fatal("limit param sent for limit<=0")
	}
}

func TestCallActionBodyShape(t *testing.T) {
	testlog.Start(t)

	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"payload":"ok"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).CallAction(context.Background(), "svc/1/lookup", map[string]any{"q": "x"}, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/actions/call" {
		t.Fatalf("%s %s, want POST /actions/call", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content-type = %q", gotContentType)
	}
	if gotBody["action"] != "svc/1/lookup" {
		t.Fatalf("body action = %v", gotBody["action"])
	}
	if payment, present := gotBody["payment"]; !present || payment != nil {
		t.Fatalf("payment = %v (present=%v), want explicit null", payment, present)
	}
}

func TestCallActionHonorsContextDeadline(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(t, srv).CallAction(ctx, "slow", nil, nil)
	if err == nil {
		t.Fatal("expected deadline error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestUpdateInfoRoute(t *testing.T) {
	testlog.Start(t)

	var gotPath string
	var gotBody ToolkitInfo
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	info := ToolkitInfo{Name: "Echo Slam", Description: "What's in, what's out."}
	if err := testClient(t, srv).UpdateInfo(context.Background(), info); err != nil {
		t.Fatalf("update info: %v", err)
	}
	if gotPath != "/toolkits/fields/" {
		t.Fatalf("path = %q, want trailing slash preserved", gotPath)
	}
	if gotBody != info {
		t.Fatalf("body = %+v, want %+v", gotBody, info)
	}
}

func TestCreateTransactionSpellings(t *testing.T) {
	testlog.Start(t)

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"id":"tx-1"}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).CreateTransaction(context.Background(), TransactionRequest{
		AgentID:    42,
		ActionID:   7,
		ActionName: "echo",
		Type:       "charge",
		Payload:    map[string]any{"amount": 1},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if gotPath != "/tx/create" {
		t.Fatalf("path = %q", gotPath)
	}
	for _, key := range []string{"agentId", "actionId", "actionName", "type", "payload"} {
		if _, ok := gotBody[key]; !ok {
			t.Fatalf("body %v missing key %q", gotBody, key)
		}
	}
	if gotBody["agentId"] != float64(42) || gotBody["actionId"] != float64(7) {
		t.Fatalf("ids = %v/%v", gotBody["agentId"], gotBody["actionId"])
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).SearchActions(context.Background(), "anything", 0)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	testlog.Start(t)
	t.Setenv(config.EnvAPIKey, "")

	if _, err := NewClient(config.Config{}); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want config.ErrMissingAPIKey", err)
	}
}
