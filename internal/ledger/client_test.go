package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// rpcServer answers every JSON-RPC call with handler's result.
func rpcServer(t *testing.T, handler func(req rpcRequest) (any, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func accountJSON(owner string, data []byte) map[string]any {
	return map[string]any{
		"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"executable": false,
		"lamports":   1000,
		"owner":      owner,
		"rentEpoch":  361,
	}
}

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://rpc.example.com")

		if c.Endpoint() != "https://rpc.example.com" {
			t.Errorf("Endpoint() = %q, want %q", c.Endpoint(), "https://rpc.example.com")
		}
		if c.commitment != "recent" {
			t.Errorf("commitment = %q, want %q", c.commitment, "recent")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://rpc.example.com",
			WithCommitment("confirmed"),
			WithTimeout(15*time.Second),
			WithRetries(10, 200*time.Millisecond),
			WithLogger(logger),
		)
		if c.commitment != "confirmed" {
			t.Errorf("commitment = %q, want %q", c.commitment, "confirmed")
		}
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 15*time.Second)
		}
		if c.maxRetries != 10 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 10)
		}
		if c.retryBackoff != 200*time.Millisecond {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 200*time.Millisecond)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status, Message: http.StatusText(tt.status)}
		if got := err.IsRetryable(); got != tt.retryable {
			t.Errorf("APIError{%d}.IsRetryable() = %v, want %v", tt.status, got, tt.retryable)
		}
	}
}

func TestGetAccountInfo(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	var gotParams []any

	server := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		if req.Method != "getAccountInfo" {
			t.Errorf("method = %q, want getAccountInfo", req.Method)
		}
		gotParams = req.Params
		return map[string]any{
			"context": map[string]any{"slot": 42},
			"value":   accountJSON("OwnerProgram111", data),
		}, nil
	})
	defer server.Close()

	c := NewClient(server.URL, WithCommitment("confirmed"))
	acct, err := c.GetAccountInfo(context.Background(), "Addr111")
	if err != nil {
		t.Fatalf("GetAccountInfo failed: %v", err)
	}

	if acct.Address != "Addr111" {
		t.Errorf("Address = %q, want Addr111", acct.Address)
	}
	if acct.Owner != "OwnerProgram111" {
		t.Errorf("Owner = %q, want OwnerProgram111", acct.Owner)
	}
	if string(acct.Data) != string(data) {
		t.Errorf("Data = %v, want %v", acct.Data, data)
	}
	if acct.Slot != 42 {
		t.Errorf("Slot = %d, want 42", acct.Slot)
	}
	if acct.Lamports != 1000 {
		t.Errorf("Lamports = %d, want 1000", acct.Lamports)
	}

	if len(gotParams) != 2 {
		t.Fatalf("params = %v, want [address, config]", gotParams)
	}
	cfg, _ := gotParams[1].(map[string]any)
	if cfg["encoding"] != "base64" || cfg["commitment"] != "confirmed" {
		t.Errorf("config = %v, want base64 + confirmed", cfg)
	}
}

func TestGetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return map[string]any{
			"context": map[string]any{"slot": 1},
			"value":   nil,
		}, nil
	})
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetAccountInfo(context.Background(), "Missing111")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestGetAccountInfo_RPCError(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return nil, &RPCError{Code: -32602, Message: "Invalid param: WrongSize"}
	})
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetAccountInfo(context.Background(), "bad")

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("err = %v, want *RPCError", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("Code = %d, want -32602", rpcErr.Code)
	}
}

func TestGetMultipleAccounts(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		if req.Method != "getMultipleAccounts" {
			t.Errorf("method = %q, want getMultipleAccounts", req.Method)
		}
		return map[string]any{
			"context": map[string]any{"slot": 7},
			"value": []any{
				accountJSON("Owner1", []byte{9}),
				nil,
			},
		}, nil
	})
	defer server.Close()

	c := NewClient(server.URL)
	accts, err := c.GetMultipleAccounts(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("GetMultipleAccounts failed: %v", err)
	}
	if len(accts) != 2 {
		t.Fatalf("len = %d, want 2", len(accts))
	}
	if accts[0] == nil || accts[0].Address != "A" || accts[0].Data[0] != 9 {
		t.Errorf("accts[0] = %+v, want address A with data [9]", accts[0])
	}
	if accts[1] != nil {
		t.Errorf("accts[1] = %+v, want nil", accts[1])
	}

	empty, err := c.GetMultipleAccounts(context.Background(), nil)
	if err != nil || empty != nil {
		t.Errorf("GetMultipleAccounts(nil) = %v, %v; want nil, nil", empty, err)
	}
}

func TestDoWithRetry(t *testing.T) {
	t.Run("retries on 503 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":null}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, time.Millisecond))
		_, err := c.GetAccountInfo(context.Background(), "X")
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("err = %v, want ErrAccountNotFound after retries", err)
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("calls = %d, want 3", got)
		}
	})

	t.Run("does not retry on 400", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, time.Millisecond))
		_, err := c.GetAccountInfo(context.Background(), "X")

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("err = %v, want APIError 400", err)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("calls = %d, want 1", got)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(2, time.Millisecond))
		_, err := c.GetAccountInfo(context.Background(), "X")
		if err == nil {
			t.Fatal("expected error")
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("calls = %d, want 3", got)
		}
	})

	t.Run("context cancelled during backoff", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(5, time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := c.GetAccountInfo(ctx, "X")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want context.DeadlineExceeded", err)
		}
	})
}
