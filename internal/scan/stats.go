package scan

import (
	"sync"

	"github.com/tdh8316/namecheck/internal/check"
)

// Snapshot is a consistent view of the counters.
// Checked == Hits + Taken + Errors always holds.
type Snapshot struct {
	Checked int
	Hits    int
	Taken   int
	Errors  int
}

// Stats aggregates outcomes under a single lock.
type Stats struct {
	mu sync.Mutex
	s  Snapshot
}

func NewStats() *Stats {
	return &Stats{}
}

// Record counts one outcome and returns the counters including it.
func (st *Stats) Record(status check.Status) Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.s.Checked++
	switch status {
	case check.Available:
		st.s.Hits++
	case check.Taken:
		st.s.Taken++
	default:
		st.s.Errors++
	}
	return st.s
}

func (st *Stats) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}
