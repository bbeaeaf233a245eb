// Package landing holds the page shell view-model: header state, countdown,
// follower counter, partner carousel and which page is shown.
package landing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"mlm-landing/internal/observability"
	"mlm-landing/internal/staking"
)

// Page selects one of the two mutually exclusive page renders.
type Page string

const (
	PageHome  Page = "home"
	PageMiner Page = "miner"
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch Page(s) {
	case PageHome, PageMiner:
		return Page(s), nil
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// Config holds shell timings and limits.
type Config struct {
	CountdownWindow   time.Duration
	CountdownInterval time.Duration
	FollowerInterval  time.Duration
	FollowerLimit     int
	FollowerStep      int
	CarouselInterval  time.Duration
	CarouselPeriod    int
	CarouselTiles     int
	// CompactScrollY is the scroll offset past which the header compacts.
	CompactScrollY int
}

// DefaultConfig returns the timings the page ships with.
func DefaultConfig() Config {
	return Config{
		CountdownWindow:   15 * 24 * time.Hour,
		CountdownInterval: time.Second,
		FollowerInterval:  5 * time.Second,
		FollowerLimit:     5000,
		FollowerStep:      10,
		CarouselInterval:  50 * time.Millisecond,
		CarouselPeriod:    500,
		CarouselTiles:     10,
		CompactScrollY:    50,
	}
}

// PanelFactory mounts a fresh staking panel.
type PanelFactory func() *staking.Panel

// Snapshot is a copy of the shell state for rendering.
type Snapshot struct {
	Page          Page              `json:"page"`
	Scrolled      bool              `json:"scrolled"`
	MenuOpen      bool              `json:"menu_open"`
	Countdown     Remaining         `json:"countdown"`
	CountdownDone bool              `json:"countdown_done"`
	Followers     int               `json:"followers"`
	FollowerLimit int               `json:"follower_limit"`
	Carousel      int               `json:"carousel"`
	CarouselTiles int               `json:"-"`
	Panel         *staking.Snapshot `json:"panel,omitempty"`
}

// Shell is the per-visitor page view-model.
type Shell struct {
	cfg      Config
	now      func() time.Time
	newPanel PanelFactory

	mu        sync.Mutex
	scrolled  bool
	menuOpen  bool
	page      Page
	countdown *Countdown
	followers *Followers
	carousel  *Carousel
	panel     *staking.Panel

	// mounts wakes Run when the panel is mounted or unmounted.
	mounts chan struct{}
}

// NewShell mounts a shell on the home page. now and rng may be nil.
func NewShell(cfg Config, newPanel PanelFactory, now func() time.Time, rng *rand.Rand) *Shell {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Shell{
		cfg:       cfg,
		now:       now,
		newPanel:  newPanel,
		page:      PageHome,
		countdown: NewCountdown(now(), cfg.CountdownWindow),
		followers: NewFollowers(cfg.FollowerLimit, cfg.FollowerStep, rng),
		carousel:  NewCarousel(cfg.CarouselPeriod),
		mounts:    make(chan struct{}, 1),
	}
}

// Snapshot returns the current state, including the panel when mounted.
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Page:          s.page,
		Scrolled:      s.scrolled,
		MenuOpen:      s.menuOpen,
		Countdown:     s.countdown.Remaining(),
		CountdownDone: s.countdown.Done(),
		Followers:     s.followers.Count(),
		FollowerLimit: s.followers.Limit(),
		Carousel:      s.carousel.Position(),
		CarouselTiles: s.cfg.CarouselTiles,
	}
	panel := s.panel
	s.mu.Unlock()

	if panel != nil {
		ps := panel.Snapshot()
		snap.Panel = &ps
	}
	return snap
}

// Page returns the selected page.
func (s *Shell) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Panel returns the mounted staking panel, or nil on the home page.
func (s *Shell) Panel() *staking.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// SetScrollY records the reported scroll offset and updates header compaction.
func (s *Shell) SetScrollY(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolled = y > s.cfg.CompactScrollY
}

// ToggleMenu opens or closes the mobile menu.
func (s *Shell) ToggleMenu() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuOpen = !s.menuOpen
}

// Navigate selects a page and closes the menu. Entering the miner page mounts
// a fresh panel; leaving it drops the panel and its state.
func (s *Shell) Navigate(page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.menuOpen = false
	if page == s.page {
		return
	}
	s.page = page

	switch {
	case page == PageMiner && s.newPanel != nil:
		s.panel = s.newPanel()
		observability.RecordPanelMounted(1)
	case s.panel != nil:
		s.panel = nil
		observability.RecordPanelMounted(-1)
	}

	select {
	case s.mounts <- struct{}{}:
	default:
	}
}

// TickCountdown recomputes the countdown from the clock.
func (s *Shell) TickCountdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countdown.Tick(s.now())
}

// TickFollowers adds a random increment to the follower counter.
func (s *Shell) TickFollowers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followers.Tick()
}

// AdvanceCarousel moves the carousel one pixel.
func (s *Shell) AdvanceCarousel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carousel.Advance()
}

// Close unmounts the panel. Used when the session ends.
func (s *Shell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel != nil {
		s.panel = nil
		observability.RecordPanelMounted(-1)
	}
}

// Run drives all shell timers until ctx is done. The countdown ticker stops
// itself once the target passes. A mounted panel gets its own accrual loop,
// cancelled on unmount.
func (s *Shell) Run(ctx context.Context) {
	countdown := time.NewTicker(s.cfg.CountdownInterval)
	defer countdown.Stop()
	followers := time.NewTicker(s.cfg.FollowerInterval)
	defer followers.Stop()
	carousel := time.NewTicker(s.cfg.CarouselInterval)
	defer carousel.Stop()

	countdownC := countdown.C
	stopPanel := func() {}
	defer func() { stopPanel() }()

	remount := func() {
		stopPanel()
		stopPanel = func() {}
		if panel := s.Panel(); panel != nil {
			panelCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				panel.Run(panelCtx)
			}()
			stopPanel = func() {
				cancel()
				<-done
			}
		}
	}
	remount()

	for {
		select {
		case <-ctx.Done():
			return
		case <-countdownC:
			s.TickCountdown()
			if s.countdownDone() {
				countdown.Stop()
				countdownC = nil
			}
		case <-followers.C:
			s.TickFollowers()
		case <-carousel.C:
			s.AdvanceCarousel()
		case <-s.mounts:
			remount()
		}
	}
}

func (s *Shell) countdownDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown.Done()
}
