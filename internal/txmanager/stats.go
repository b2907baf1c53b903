package txmanager

import (
	"sync"
	"time"
)

const defaultLatencyWindow = 100

// Stats collects transaction counters. Safe for concurrent use.
// Each Manager owns one; tests create their own instead of sharing state.
type Stats struct {
	mu sync.Mutex

	total           int64
	committed       int64
	rolledBack      int64
	retried         int64
	failed          int64
	deadlockRetries int64
	retriesByReason map[Reason]int64

	// ring of recent commit durations
	durations []time.Duration
	next      int
	window    int
}

// StatsSnapshot point-in-time copy of Stats
type StatsSnapshot struct {
	TotalTransactions      int64            `json:"total_transactions"`
	CommittedTransactions  int64            `json:"committed_transactions"`
	RolledBackTransactions int64            `json:"rolled_back_transactions"`
	RetriedTransactions    int64            `json:"retried_transactions"`
	FailedTransactions     int64            `json:"failed_transactions"`
	DeadlockRetries        int64            `json:"deadlock_retries"`
	RetriesByReason        map[string]int64 `json:"retries_by_reason"`
	AverageCommitLatency   time.Duration    `json:"average_commit_latency_ns"`
	LatencySamples         int              `json:"latency_samples"`
}

// NewStats keeps the last 100 commit durations for the latency average
func NewStats() *Stats {
	return NewStatsWithWindow(defaultLatencyWindow)
}

func NewStatsWithWindow(window int) *Stats {
	if window <= 0 {
		window = defaultLatencyWindow
	}
	return &Stats{
		retriesByReason: make(map[Reason]int64),
		durations:       make([]time.Duration, 0, window),
		window:          window,
	}
}

func (s *Stats) recordStart() {
	s.mu.Lock()
	s.total++
	s.mu.Unlock()
}

func (s *Stats) recordCommit(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed++
	if len(s.durations) < s.window {
		s.durations = append(s.durations, d)
		return
	}
	s.durations[s.next] = d
	s.next = (s.next + 1) % s.window
}

func (s *Stats) recordRollback() {
	s.mu.Lock()
	s.rolledBack++
	s.mu.Unlock()
}

func (s *Stats) recordRetry(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried++
	s.retriesByReason[reason]++
	if reason == ReasonDeadlock {
		s.deadlockRetries++
	}
}

func (s *Stats) recordFailure() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

// Snapshot copies the current counters
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalTransactions:      s.total,
		CommittedTransactions:  s.committed,
		RolledBackTransactions: s.rolledBack,
		RetriedTransactions:    s.retried,
		FailedTransactions:     s.failed,
		DeadlockRetries:        s.deadlockRetries,
		RetriesByReason:        make(map[string]int64, len(s.retriesByReason)),
		LatencySamples:         len(s.durations),
	}
	for reason, n := range s.retriesByReason {
		snap.RetriesByReason[string(reason)] = n
	}
	if len(s.durations) > 0 {
		var sum time.Duration
		for _, d := range s.durations {
			sum += d
		}
		snap.AverageCommitLatency = sum / time.Duration(len(s.durations))
	}
	return snap
}

// Reset zeroes every counter
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total, s.committed, s.rolledBack, s.retried, s.failed, s.deadlockRetries = 0, 0, 0, 0, 0, 0
	s.retriesByReason = make(map[Reason]int64)
	s.durations = s.durations[:0]
	s.next = 0
}
