package scan

import (
	"context"
	"time"

	"github.com/tdh8316/namecheck/internal/check"
)

// Checker resolves one username. Implementations must be safe for concurrent use.
type Checker interface {
	Check(ctx context.Context, username string) check.Outcome
}

// Sink persists outcomes. Implementations must be safe for concurrent use.
type Sink interface {
	Record(out check.Outcome) error
}

type Config struct {
	Concurrency int
}

// Progress is handed to the progress callback after every completed username.
type Progress struct {
	Snapshot

	Total   int
	Elapsed time.Duration
	// Rate is checked usernames per second so far.
	Rate float64
}

type Summary struct {
	Snapshot

	Elapsed time.Duration
}
