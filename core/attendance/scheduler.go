package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

var nowFunc = time.Now // mockable

// Scheduler polls the portal for a session's rotating token on a fixed
// cadence. It owns its timer: Start spawns the poll, Stop cancels it and
// discards the effect of any fetch still in flight. At most one poll runs per
// scheduler; starting it for a new session stops the previous poll first.
type Scheduler struct {
	portal   Portal
	notifier core.Notifier
	logger   core.Logger
	interval time.Duration

	mu        sync.Mutex
	sessionID string
	current   RotatingToken
	gen       uint64 // bumped on Stop; late fetches from an older gen are dropped
	cancel    context.CancelFunc
	updates   chan RotatingToken
}

func NewScheduler(portal Portal, notifier core.Notifier, logger core.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{
		portal:   portal,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		updates:  make(chan RotatingToken, 1),
	}
}

// Start transitions to polling for sessionID: one immediate fetch, then one
// every interval until Stop. Calling Start again for the same session is a
// no-op; for a different session, the running poll is stopped first.
func (s *Scheduler) Start(sessionID string) {
	s.mu.Lock()
	if s.cancel != nil {
		if s.sessionID == sessionID {
			s.mu.Unlock()
			return
		}
		s.stopLocked()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sessionID = sessionID
	s.current = RotatingToken{}
	gen := s.gen
	s.mu.Unlock()

	go s.poll(ctx, sessionID, gen)
}

// Stop cancels the scheduled fetches. A response that arrives after Stop is
// never applied. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.sessionID = ""
	s.gen++

	// drop any unread token of the stopped session; a restart's first
	// receive must never deliver the previous session's token
	select {
	case <-s.updates:
	default:
	}
}

// Current returns the latest token fetched; zero until the first fetch lands.
func (s *Scheduler) Current() RotatingToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Updates exposes the freshest token as it lands; stale intermediate values
// are dropped, a reader only ever sees the newest.
func (s *Scheduler) Updates() <-chan RotatingToken {
	return s.updates
}

func (s *Scheduler) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Scheduler) poll(ctx context.Context, sessionID string, gen uint64) {
	s.fetch(ctx, sessionID, gen)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetch(ctx, sessionID, gen)
		}
	}
}

func (s *Scheduler) fetch(ctx context.Context, sessionID string, gen uint64) {
	tok, err := s.portal.CurrentToken(ctx, sessionID)
	if err != nil {
		if ctx.Err() != nil { // stopped mid-flight
			return
		}
		// token endpoint outages are expected to be transient; keep polling
		s.logger.Warn(fmt.Sprintf("fetching token for session %s: %v", sessionID, err), err)
		s.notifier.Notify(core.Notification{
			Level:   core.NotifyError,
			Message: "could not refresh the check-in code; retrying",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen { // Stop won the race; drop the late response
		return
	}
	s.current = tok

	// publish, replacing any unread older value
	select {
	case s.updates <- tok:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- tok:
		default:
		}
	}
}
