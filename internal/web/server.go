// Package web serves the landing page, its form actions, the JSON state
// and the live WebSocket channel for every browser session.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mlm-landing/internal/landing"
	"mlm-landing/internal/observability"
	"mlm-landing/internal/session"
	"mlm-landing/internal/solana"
	"mlm-landing/internal/staking"
	"mlm-landing/internal/wallet"
)

// CookieName carries the session id.
const CookieName = "mlm_session"

const statusSlotTimeout = 3 * time.Second

// Options configures the HTTP surface.
type Options struct {
	// PushInterval is how often the live channel sends state.
	PushInterval time.Duration
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// Network and RPCEndpoint are reported on /status.
	Network     solana.Network
	RPCEndpoint string
	// RPC, when set, reports the cluster slot on /status.
	RPC solana.RPCClient
}

// State is everything a page render needs for one session.
type State struct {
	Shell  landing.Snapshot `json:"shell"`
	Wallet wallet.Snapshot  `json:"wallet"`
}

// Server holds the HTTP handlers.
type Server struct {
	store    *session.Store
	opts     Options
	logger   *log.Logger
	liveLog  *log.Logger
	upgrader websocket.Upgrader
	started  time.Time
}

// NewServer creates the HTTP surface over store. liveLogger may be nil.
func NewServer(store *session.Store, opts Options, logger, liveLogger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if liveLogger == nil {
		liveLogger = logger
	}
	if opts.PushInterval <= 0 {
		opts.PushInterval = 250 * time.Millisecond
	}
	return &Server{
		store:   store,
		opts:    opts,
		logger:  logger,
		liveLog: liveLogger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		started: time.Now(),
	}
}

// Handler returns the routed handler wrapped in the error boundary.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /ws", s.handleLive)

	mux.HandleFunc("POST /nav", s.handleNav)
	mux.HandleFunc("POST /menu", s.handleMenu)
	mux.HandleFunc("POST /wallet/connect", s.handleConnect)
	mux.HandleFunc("POST /wallet/disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /stake", s.handleStake)
	mux.HandleFunc("POST /unstake", s.handleUnstake)
	mux.HandleFunc("POST /compound", s.handleCompound)
	mux.HandleFunc("POST /claim", s.handleClaim)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	return boundary(s.logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer observability.TrackRequest()()
		mux.ServeHTTP(w, r)
	}))
}

// sessionFor returns the caller's session, creating it and setting the
// cookie when the id is missing or expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	sess, created := s.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.opts.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// lookup returns the caller's session without creating one.
func (s *Server) lookup(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return s.store.Get(c.Value)
}

func stateOf(sess *session.Session) State {
	return State{
		Shell:  sess.Shell.Snapshot(),
		Wallet: sess.Wallet.Snapshot(),
	}
}

func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	st := stateOf(sess)
	observability.RecordPageRender(string(st.Shell.Page))
	render(w, s.logger, renderPage(st))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateOf(sess))
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	page, err := landing.ParsePage(r.FormValue("page"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.sessionFor(w, r).Shell.Navigate(page)
	back(w, r)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r).Shell.ToggleMenu()
	back(w, r)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	err := sess.Wallet.Connect(r.Context(), r.FormValue("pubkey"))
	switch {
	case errors.Is(err, solana.ErrInvalidPublicKey), errors.Is(err, solana.ErrOffCurve):
		http.Error(w, "invalid wallet public key", http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Printf("WARN: wallet connect: %v", err)
	}
	back(w, r)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r).Wallet.Disconnect()
	back(w, r)
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	amount := r.FormValue("amount")
	s.panelAction(w, r, staking.ActionStake, func(p *staking.Panel) error {
		p.SetStakeInput(amount)
		return p.Stake(r.Context(), amount)
	})
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	amount := r.FormValue("amount")
	s.panelAction(w, r, staking.ActionUnstake, func(p *staking.Panel) error {
		return p.Unstake(r.Context(), amount)
	})
}

func (s *Server) handleCompound(w http.ResponseWriter, r *http.Request) {
	s.panelAction(w, r, staking.ActionCompound, func(p *staking.Panel) error {
		return p.Compound(r.Context())
	})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	s.panelAction(w, r, staking.ActionClaim, func(p *staking.Panel) error {
		return p.Claim(r.Context())
	})
}

// panelAction runs fn against the mounted panel. The panel keeps its own
// user-facing error text, so every outcome redirects back to the page.
func (s *Server) panelAction(w http.ResponseWriter, r *http.Request, action staking.Action, fn func(*staking.Panel) error) {
	panel := s.sessionFor(w, r).Shell.Panel()
	if panel == nil {
		http.Error(w, "staking panel is not open", http.StatusConflict)
		return
	}
	if err := fn(panel); errors.Is(err, staking.ErrBusy) {
		s.logger.Printf("Rejected %s: %v", action, err)
	}
	back(w, r)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Started     time.Time `json:"started"`
	Sessions    int       `json:"sessions"`
	Network     string    `json:"network"`
	RPCEndpoint string    `json:"rpc_endpoint,omitempty"`
	Slot        int64     `json:"slot,omitempty"`
	RPCError    string    `json:"rpc_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Started:     s.started,
		Sessions:    s.store.Len(),
		Network:     string(s.opts.Network),
		RPCEndpoint: s.opts.RPCEndpoint,
	}
	if s.opts.RPC != nil {
		ctx, cancel := context.WithTimeout(r.Context(), statusSlotTimeout)
		slot, err := s.opts.RPC.GetSlot(ctx)
		cancel()
		if err != nil {
			s.logger.Printf("WARN: get slot: %v", err)
			resp.RPCError = err.Error()
		} else {
			resp.Slot = slot
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
