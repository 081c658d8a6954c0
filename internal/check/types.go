package check

import (
	"time"
)

// DefaultEndpoint is the availability API; `{}` is replaced by the username.
const DefaultEndpoint = "https://api.hytl.tools/check/{}"

// Status is the terminal state of one username check.
type Status int

const (
	Taken Status = iota
	Available
	Errored
)

func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case Taken:
		return "taken"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Outcome is produced exactly once per checked username.
type Outcome struct {
	Username string
	Status   Status
	// Reason is set only for Errored outcomes.
	Reason string
}

type Config struct {
	Endpoint   string
	Retries    int
	RetryDelay time.Duration
	// RateLimit caps requests per second across all callers; 0 disables it.
	RateLimit float64
	Debug     bool
}
