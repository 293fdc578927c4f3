package session

import (
	"time"
)

const defaultRefreshMargin = 60 * time.Second

// scheduler holds at most one pending refresh timer.
// It is owned by Manager and used under its lock only.
type scheduler struct {
	margin time.Duration
	clock  func() time.Time

	timer *time.Timer
	seq   uint64 // identifies the pending timer
}

// arm replaces the pending timer with one firing margin before expiresAt.
// A fire time in the past fires right away.
func (s *scheduler) arm(expiresAt time.Time, fire func(seq uint64)) time.Duration {
	s.cancel()

	delay := expiresAt.Add(-s.margin).Sub(s.clock())
	if delay < 0 {
		delay = 0
	}

	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(delay, func() { fire(seq) })
	return delay
}

func (s *scheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// take reports whether seq is still the pending timer and forgets it.
// A timer that fired after being cancelled or replaced is not taken.
func (s *scheduler) take(seq uint64) bool {
	if s.timer == nil || s.seq != seq {
		return false
	}
	s.timer = nil
	return true
}

func (s *scheduler) armed() bool {
	return s.timer != nil
}
