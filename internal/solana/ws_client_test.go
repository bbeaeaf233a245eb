package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeNode answers accountSubscribe with subID and then pushes one
// notification carrying lamports. Other requests are sent to seen.
func fakeNode(t *testing.T, subID int64, lamports uint64, seen chan<- wsRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				t.Errorf("unmarshal request: %v", err)
				return
			}

			if req.Method != "accountSubscribe" {
				if seen != nil {
					seen <- req
				}
				continue
			}

			c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: subID})

			time.Sleep(20 * time.Millisecond)
			c.WriteJSON(wsNotification{
				JSONRPC: "2.0",
				Method:  "accountNotification",
				Params: &wsNotificationParams{
					Subscription: subID,
					Result: wsNotificationResult{
						Context: &wsContext{Slot: 900},
						Value:   wsAccountValue{Lamports: lamports, Owner: "11111111111111111111111111111111"},
					},
				},
			})
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_Connect(t *testing.T) {
	server := fakeNode(t, 1, 0, nil)
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_SubscribeAccount(t *testing.T) {
	server := fakeNode(t, 555, 2_000_000_000, nil)
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	sub, err := client.SubscribeAccount(ctx, "walletkey")
	if err != nil {
		t.Fatalf("SubscribeAccount: %v", err)
	}
	if sub.Pubkey != "walletkey" {
		t.Errorf("expected pubkey walletkey, got %s", sub.Pubkey)
	}

	select {
	case n := <-sub.C:
		if n.Lamports != 2_000_000_000 {
			t.Errorf("expected 2000000000 lamports, got %d", n.Lamports)
		}
		if n.Slot != 900 {
			t.Errorf("expected slot 900, got %d", n.Slot)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestWSClient_Unsubscribe(t *testing.T) {
	seen := make(chan wsRequest, 4)
	server := fakeNode(t, 77, 1, seen)
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	sub, err := client.SubscribeAccount(ctx, "walletkey")
	if err != nil {
		t.Fatalf("SubscribeAccount: %v", err)
	}

	if err := client.Unsubscribe(sub.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	select {
	case req := <-seen:
		if req.Method != "accountUnsubscribe" {
			t.Errorf("expected accountUnsubscribe, got %s", req.Method)
		}
		if id, ok := req.Params[0].(float64); !ok || int64(id) != 77 {
			t.Errorf("expected server subscription 77, got %v", req.Params[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for unsubscribe")
	}

	// Channel is closed once any buffered update is drained.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.C:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel not closed")
		}
	}
}

func TestWSClient_Close(t *testing.T) {
	server := fakeNode(t, 1, 0, nil)
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should be closed")
	}
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}
}

func TestWSClient_SubscribeAfterClose(t *testing.T) {
	server := fakeNode(t, 1, 0, nil)
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	client.Close()

	if _, err := client.SubscribeAccount(ctx, "walletkey"); err != ErrClientClosed {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}
