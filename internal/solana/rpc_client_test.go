package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func rpcServer(t *testing.T, handle func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		if len(req.Params) != 2 || req.Params[0] != "walletkey" {
			t.Errorf("unexpected params: %v", req.Params)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 4242},
			"value":   1_500_000_000,
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bal, err := client.GetBalance(context.Background(), "walletkey")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if bal.Lamports != 1_500_000_000 {
		t.Errorf("expected 1500000000 lamports, got %d", bal.Lamports)
	}
	if bal.Slot != 4242 {
		t.Errorf("expected slot 4242, got %d", bal.Slot)
	}
	if bal.SOL() != 1.5 {
		t.Errorf("expected 1.5 SOL, got %v", bal.SOL())
	}
}

func TestHTTPClient_CommitmentParam(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		cfg, ok := req.Params[len(req.Params)-1].(map[string]interface{})
		if !ok {
			t.Errorf("expected config object, got %T", req.Params[len(req.Params)-1])
		} else if cfg["commitment"] != CommitmentFinalized {
			t.Errorf("expected finalized commitment, got %v", cfg["commitment"])
		}
		return 77
	})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithCommitment(CommitmentFinalized))
	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 77 {
		t.Errorf("expected slot 77, got %d", slot)
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": map[string]interface{}{
				"lamports":   890880,
				"owner":      "11111111111111111111111111111111",
				"data":       []string{"AQID", "base64"},
				"executable": false,
				"rentEpoch":  361,
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "acct")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Lamports != 890880 {
		t.Errorf("expected 890880 lamports, got %d", info.Lamports)
	}
	if info.Data != "AQID" {
		t.Errorf("expected data AQID, got %s", info.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   nil,
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for missing account, got %+v", info)
	}
}

func TestHTTPClient_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": 5},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	bal, err := client.GetBalance(context.Background(), "key")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal.Lamports != 5 {
		t.Errorf("expected 5 lamports, got %d", bal.Lamports)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	_, err := client.GetBalance(context.Background(), "key")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", calls.Load())
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "Invalid param: WrongSize"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	_, err := client.GetBalance(context.Background(), "bad")

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPClient_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Second))
	_, err := client.GetBalance(ctx, "key")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
