package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription id.
	SubscribeTimeout time.Duration
	// Commitment is sent with every subscription.
	Commitment string
	// Logger receives connection diagnostics. Nil discards them.
	Logger *log.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
		Commitment:        CommitmentConfirmed,
	}
}

// accountSub tracks one accountSubscribe stream across reconnects.
type accountSub struct {
	id       uint64
	serverID int64
	pubkey   string
	ch       chan AccountNotification
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64
	localID   atomic.Uint64

	// subs holds live subscriptions by local id; byServer indexes them by
	// the id the node assigned on the current connection.
	subs     map[uint64]*accountSub
	byServer map[int64]*accountSub
	subsMu   sync.RWMutex

	// pendingSubs maps request ID to channel waiting for subscription ID
	pendingSubs   map[uint64]chan int64
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		logger:      logger,
		subs:        make(map[uint64]*accountSub),
		byServer:    make(map[int64]*accountSub),
		pendingSubs: make(map[uint64]chan int64),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeAccount subscribes to lamport changes of pubkey.
func (c *WSClientImpl) SubscribeAccount(ctx context.Context, pubkey string) (*AccountSubscription, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	serverID, err := c.subscribe(ctx, pubkey)
	if err != nil {
		return nil, err
	}

	sub := &accountSub{
		id:       c.localID.Add(1),
		serverID: serverID,
		pubkey:   pubkey,
		ch:       make(chan AccountNotification, 16),
	}

	c.subsMu.Lock()
	c.subs[sub.id] = sub
	c.byServer[serverID] = sub
	c.subsMu.Unlock()

	return &AccountSubscription{ID: sub.id, Pubkey: pubkey, C: sub.ch}, nil
}

// Unsubscribe cancels a subscription and closes its channel.
func (c *WSClientImpl) Unsubscribe(id uint64) error {
	c.subsMu.Lock()
	sub, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
		delete(c.byServer, sub.serverID)
		close(sub.ch)
	}
	c.subsMu.Unlock()

	if !ok {
		return nil
	}
	if c.closed.Load() {
		return nil
	}

	// The node confirms with a bare boolean; nothing waits for it.
	return c.write(wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "accountUnsubscribe",
		Params:  []interface{}{sub.serverID},
	})
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.byServer = make(map[int64]*accountSub)
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, ch := range c.pendingSubs {
		close(ch)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *WSClientImpl) write(req wsRequest) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write %s: %w", req.Method, err)
	}
	return nil
}

// subscribe sends accountSubscribe and waits for the node's subscription id.
func (c *WSClientImpl) subscribe(ctx context.Context, pubkey string) (int64, error) {
	reqID := c.requestID.Add(1)

	confirmCh := make(chan int64, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = confirmCh
	c.pendingSubsMu.Unlock()

	forget := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	err := c.write(wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "accountSubscribe",
		Params: []interface{}{
			pubkey,
			map[string]string{"encoding": "base64", "commitment": c.config.Commitment},
		},
	})
	if err != nil {
		forget()
		return 0, err
	}

	select {
	case subID, ok := <-confirmCh:
		if !ok {
			return 0, ErrClientClosed
		}
		return subID, nil
	case <-time.After(c.config.SubscribeTimeout):
		forget()
		return 0, fmt.Errorf("subscription timeout after %v", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, ErrClientClosed
	case <-ctx.Done():
		forget()
		return 0, ctx.Err()
	}
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				c.logger.Printf("connection lost: %v, reconnecting in %v", err, reconnectDelay)
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Printf("reconnect failed: %v", err)
		return
	}

	c.resubscribeAll()
}

// resubscribeAll renews every live subscription on the new connection.
func (c *WSClientImpl) resubscribeAll() {
	c.subsMu.RLock()
	subs := make([]*accountSub, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subsMu.RUnlock()

	for _, sub := range subs {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		newID, err := c.subscribe(ctx, sub.pubkey)
		cancel()
		if err != nil {
			c.logger.Printf("resubscribe %s: %v", sub.pubkey, err)
			continue
		}

		c.subsMu.Lock()
		if _, live := c.subs[sub.id]; live {
			delete(c.byServer, sub.serverID)
			sub.serverID = newID
			c.byServer[newID] = sub
		}
		c.subsMu.Unlock()
	}
}

func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		c.handleSubscribeResponse(&resp)
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "accountNotification" {
		c.handleAccountNotification(&notif)
		return
	}

	var errResp wsErrorResponse
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		c.logger.Printf("error response: code=%d msg=%s", errResp.Error.Code, errResp.Error.Message)
	}
}

func (c *WSClientImpl) handleSubscribeResponse(resp *wsSubscribeResponse) {
	c.pendingSubsMu.Lock()
	ch, ok := c.pendingSubs[resp.ID]
	if ok {
		delete(c.pendingSubs, resp.ID)
	}
	c.pendingSubsMu.Unlock()

	if ok {
		select {
		case ch <- resp.Result:
		default:
		}
	}
}

func (c *WSClientImpl) handleAccountNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	update := AccountNotification{
		Lamports: notif.Params.Result.Value.Lamports,
		Owner:    notif.Params.Result.Value.Owner,
	}
	if notif.Params.Result.Context != nil {
		update.Slot = notif.Params.Result.Context.Slot
	}

	// Held for the whole send so Unsubscribe cannot close the channel under us.
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()

	sub, ok := c.byServer[notif.Params.Subscription]
	if !ok {
		return
	}

	// Only the latest balance matters: make room by dropping the oldest.
	select {
	case sub.ch <- update:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- update:
		default:
		}
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in readLoop, which reconnects.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsErrorResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext     `json:"context"`
	Value   wsAccountValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsAccountValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}
