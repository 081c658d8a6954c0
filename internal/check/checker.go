// Package check asks the remote API whether a single username is free.
package check

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/tdh8316/namecheck/internal/httpx"
	"github.com/tdh8316/namecheck/internal/logging"
)

const (
	maxBodyBytes  = 1 << 20
	maxLoggedBody = 200
	maxBackoffShift = 20
	maxBackoff      = time.Duration(math.MaxInt64)
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Checker struct {
	client  httpx.Doer
	cfg     Config
	log     logrus.FieldLogger
	limiter *rate.Limiter
	sleep   SleepFunc
}

type Option func(*Checker)

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Checker) { c.sleep = fn }
}

func NewChecker(client httpx.Doer, cfg Config, log logrus.FieldLogger, opts ...Option) *Checker {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	c := &Checker{
		client: client,
		cfg:    cfg,
		log:    log,
		sleep:  sleepContext,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs up to Retries+1 attempts for username. It never returns an
// error; every failure is folded into an Errored outcome.
func (c *Checker) Check(ctx context.Context, username string) Outcome {
	target := strings.ReplaceAll(c.cfg.Endpoint, "{}", url.PathEscape(username))

	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return errored(username, err.Error())
			}
		}

		status, body, err := c.do(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return errored(username, ctx.Err().Error())
			}
			if attempt < c.cfg.Retries {
				c.log.WithField("error", err.Error()).Debugf("Retrying %s after transport error", username)
				if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
					return errored(username, err.Error())
				}
				continue
			}
			c.log.WithField("error", err.Error()).Errorf("Exception checking %s", username)
			return errored(username, err.Error())
		}

		c.logResponse(username, status, body)

		switch status {
		case http.StatusOK:
			// Unparseable bodies count as taken, even if they mention the field.
			if gjson.ValidBytes(body) && gjson.GetBytes(body, "available").Bool() {
				logging.Hit(c.log, username)
				return Outcome{Username: username, Status: Available}
			}
			return Outcome{Username: username, Status: Taken}

		case http.StatusTooManyRequests:
			if attempt >= c.cfg.Retries {
				continue
			}
			wait := backoff(c.cfg.RetryDelay, attempt)
			c.log.Warnf("Rate limited on %s, waiting %.1fs", username, wait.Seconds())
			if err := c.sleep(ctx, wait); err != nil {
				return errored(username, err.Error())
			}

		default:
			c.log.WithField("status", status).Errorf("Request failed for %s", username)
			return errored(username, fmt.Sprintf("HTTP %d", status))
		}
	}

	return errored(username, "Max retries exceeded")
}

// backoff is base doubled attempt times, saturating instead of overflowing.
func backoff(base time.Duration, attempt int) time.Duration {
	shift := min(attempt, maxBackoffShift)
	if base > maxBackoff>>shift {
		return maxBackoff
	}
	return base << shift
}

func (c *Checker) do(ctx context.Context, target string) (int, []byte, error) {
	req, err := httpx.NewRequest(ctx, http.MethodGet, target, nil, httpx.DefaultHeaders)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Checker) logResponse(username string, status int, body []byte) {
	level := logrus.InfoLevel
	if c.cfg.Debug {
		level = logrus.DebugLevel
	}
	c.log.WithField("response", truncate(string(body), maxLoggedBody)).
		Logf(level, "HTTP %d <- %s", status, username)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func errored(username, reason string) Outcome {
	return Outcome{Username: username, Status: Errored, Reason: reason}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
