package heartbeat

import (
	"context"
	"time"
)

// TickOutcome classifies one heartbeat attempt.
type TickOutcome int

const (
	// TickSuccess is a plain successful beat with no prior failures.
	TickSuccess TickOutcome = iota
	// TickReconnected is a successful beat following at least one failed
	// attempt — the caller must invoke Runtime.RegisterAllFitServices.
	TickReconnected
	// TickFailure is a failed beat (transport error or a false result).
	TickFailure
)

// LoopState is the pure fail-counter/last-success bookkeeping behind one
// heartbeat loop — owned entirely by the loop itself, not shared with the
// supervisor. It is reused unmodified by both the thread worker (same
// process) and cmd/heartbeatworker (child process) so the two paths share
// identical tick semantics.
type LoopState struct {
	failCount   int
	lastSuccess time.Time
}

// NewLoopState creates a LoopState with no prior history.
func NewLoopState() *LoopState {
	return &LoopState{}
}

// Tick performs one heartbeat attempt and updates the state machine.
// elapsed is the duration since the previous successful beat — zero on
// the very first successful tick — and unstable reports whether that
// exceeds 2x the configured interval.
func (s *LoopState) Tick(ctx context.Context, transport Transport, infos []HeartBeatInfo, addr HeartBeatAddress, interval time.Duration) (outcome TickOutcome, elapsed time.Duration, unstable bool, err error) {
	ok, tickErr := transport.Heartbeat(ctx, infos, addr)
	if tickErr != nil || !ok {
		s.failCount++
		if tickErr == nil {
			tickErr = errBeatRejected
		}
		return TickFailure, 0, false, tickErr
	}

	now := time.Now()
	if !s.lastSuccess.IsZero() {
		elapsed = now.Sub(s.lastSuccess)
		unstable = elapsed > 2*interval
	}
	s.lastSuccess = now

	reconnected := s.failCount > 0
	s.failCount = 0

	if reconnected {
		return TickReconnected, elapsed, unstable, nil
	}
	return TickSuccess, elapsed, unstable, nil
}

// FailCount reports the current consecutive-failure count.
func (s *LoopState) FailCount() int {
	return s.failCount
}
