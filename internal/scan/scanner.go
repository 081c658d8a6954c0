package scan

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tdh8316/namecheck/internal/check"
)

// ErrNothingToCheck is returned by Run for an empty work list.
var ErrNothingToCheck = errors.New("nothing to check")

type Scanner struct {
	checker Checker
	sink    Sink
	stats   *Stats
	cfg     Config
	log     logrus.FieldLogger

	now func() time.Time
}

func NewScanner(checker Checker, sink Sink, stats *Stats, cfg Config, log logrus.FieldLogger) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if stats == nil {
		stats = NewStats()
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Scanner{
		checker: checker,
		sink:    sink,
		stats:   stats,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// Run checks every username on a pool of cfg.Concurrency workers. Outcomes are
// handled in completion order: each is persisted, counted, then reported to
// onProgress. onProgress may be nil and is never called concurrently.
//
// Run returns once every dispatched username is accounted for. If ctx is
// cancelled, no further usernames are dispatched and ctx.Err() is returned
// alongside the partial summary.
func (s *Scanner) Run(ctx context.Context, usernames []string, onProgress func(Progress)) (Summary, error) {
	if len(usernames) == 0 {
		return Summary{}, ErrNothingToCheck
	}

	workers := min(s.cfg.Concurrency, len(usernames))
	start := s.now()

	jobs := make(chan string)
	results := make(chan check.Outcome, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for username := range jobs {
				results <- s.checkOne(ctx, username)
			}
		}()
	}

	go func() {
		defer close(results)
		wg.Wait()
	}()

	go func() {
		defer close(jobs)
		for _, username := range usernames {
			select {
			case <-ctx.Done():
				return
			case jobs <- username:
			}
		}
	}()

	total := len(usernames)
	for res := range results {
		snap := s.record(res)
		if onProgress == nil {
			continue
		}

		elapsed := s.now().Sub(start)
		rate := 0.0
		if secs := elapsed.Seconds(); secs > 0 {
			rate = float64(snap.Checked) / secs
		}
		onProgress(Progress{
			Snapshot: snap,
			Total:    total,
			Elapsed:  elapsed,
			Rate:     rate,
		})
	}

	summary := Summary{
		Snapshot: s.stats.Snapshot(),
		Elapsed:  s.now().Sub(start),
	}
	return summary, ctx.Err()
}

// checkOne turns a checker panic into an Errored outcome so one bad username
// cannot take down the pool.
func (s *Scanner) checkOne(ctx context.Context, username string) (out check.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", fmt.Sprint(r)).Errorf("Exception checking %s", username)
			out = check.Outcome{Username: username, Status: check.Errored, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return s.checker.Check(ctx, username)
}

func (s *Scanner) record(out check.Outcome) Snapshot {
	if s.sink != nil {
		if err := s.sink.Record(out); err != nil {
			s.log.WithField("error", err.Error()).Errorf("Failed to save result for %s", out.Username)
		}
	}
	return s.stats.Record(out.Status)
}
