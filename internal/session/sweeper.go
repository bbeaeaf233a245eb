package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper expires idle sessions on a cron schedule.
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	ttl    time.Duration
	logger *log.Logger
}

// NewSweeper schedules a sweep of store every interval.
func NewSweeper(store *Store, ttl, interval time.Duration, logger *log.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", ttl)
	}

	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.sweep); err != nil {
		return nil, fmt.Errorf("register sweep: %w", err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Printf("Session sweep started (ttl %v)", s.ttl)
}

// Stop stops the scheduler and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Println("Session sweep stopped")
}

// RunNow sweeps immediately.
func (s *Sweeper) RunNow() int {
	return s.store.Sweep(s.ttl)
}

func (s *Sweeper) sweep() {
	if n := s.store.Sweep(s.ttl); n > 0 {
		s.logger.Printf("Sweep expired %d sessions, %d live", n, s.store.Len())
	}
}
