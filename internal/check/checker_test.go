package check

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdh8316/namecheck/internal/httpx"
)

type scriptedResponse struct {
	status int
	body   string
}

// scriptedServer replays responses in order and repeats the last one.
type scriptedServer struct {
	mu        sync.Mutex
	responses []scriptedResponse
	paths     []string
	headers   []http.Header
}

func (s *scriptedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.paths)
	s.paths = append(s.paths, r.URL.Path)
	s.headers = append(s.headers, r.Header.Clone())
	resp := s.responses[min(n, len(s.responses)-1)]
	s.mu.Unlock()

	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (s *scriptedServer) requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return nil
}

func newTestChecker(t *testing.T, script *scriptedServer, retries int, delay time.Duration, rec *sleepRecorder) *Checker {
	t.Helper()
	server := httptest.NewServer(script)
	t.Cleanup(server.Close)

	return NewChecker(server.Client(), Config{
		Endpoint:   server.URL + "/check/{}",
		Retries:    retries,
		RetryDelay: delay,
	}, nil, WithSleep(rec.sleep))
}

func TestCheckAvailable(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{{200, `{"available": true}`}}}
	rec := &sleepRecorder{}
	c := newTestChecker(t, script, 5, time.Second, rec)

	out := c.Check(context.Background(), "Alice_1")
	assert.Equal(t, Outcome{Username: "Alice_1", Status: Available}, out)
	assert.Equal(t, []string{"/check/Alice_1"}, script.paths)
	assert.Equal(t, "https://hytl.tools", script.headers[0].Get("Origin"))
	assert.Empty(t, rec.sleeps)
}

func TestCheckTakenWhenFieldMissingOrBodyInvalid(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		`{"available": false}`,
		`{}`,
		`not json`,
		``,
		`{"available": true`,
		`{"available": true} trailing`,
		`<html>{"available":true}`,
	} {
		script := &scriptedServer{responses: []scriptedResponse{{200, body}}}
		c := newTestChecker(t, script, 5, time.Second, &sleepRecorder{})

		out := c.Check(context.Background(), "bob")
		assert.Equal(t, Taken, out.Status, "body %q", body)
		assert.Equal(t, 1, script.requests(), "body %q", body)
	}
}

func TestCheckRateLimitedThenAvailable(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{
		{429, ""},
		{429, ""},
		{200, `{"available":true}`},
	}}
	rec := &sleepRecorder{}
	c := newTestChecker(t, script, 5, 3*time.Second, rec)

	out := c.Check(context.Background(), "carol")
	assert.Equal(t, Available, out.Status)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, rec.sleeps)
	assert.Equal(t, 3, script.requests())
}

func TestCheckRateLimitExhausted(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{{429, ""}}}
	rec := &sleepRecorder{}
	c := newTestChecker(t, script, 2, time.Second, rec)

	out := c.Check(context.Background(), "dave")
	assert.Equal(t, Outcome{Username: "dave", Status: Errored, Reason: "Max retries exceeded"}, out)
	assert.Equal(t, 3, script.requests())
	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.sleeps)
}

func TestCheckUnexpectedStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{{404, "nope"}}}
	rec := &sleepRecorder{}
	c := newTestChecker(t, script, 5, time.Second, rec)

	out := c.Check(context.Background(), "erin")
	assert.Equal(t, Outcome{Username: "erin", Status: Errored, Reason: "HTTP 404"}, out)
	assert.Equal(t, 1, script.requests())
	assert.Empty(t, rec.sleeps)
}

type failingDoer struct {
	mu    sync.Mutex
	calls int
	fails int
}

func (d *failingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.fails {
		return nil, errors.New("connection refused")
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       http.NoBody,
		Request:    req,
	}, nil
}

func TestCheckTransportErrorRetriesWithConstantDelay(t *testing.T) {
	t.Parallel()

	doer := &failingDoer{fails: 2}
	rec := &sleepRecorder{}
	c := NewChecker(doer, Config{Retries: 5, RetryDelay: 4 * time.Second}, nil, WithSleep(rec.sleep))

	out := c.Check(context.Background(), "frank")
	assert.Equal(t, Taken, out.Status)
	assert.Equal(t, 3, doer.calls)
	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second}, rec.sleeps)
}

func TestCheckTransportErrorExhausted(t *testing.T) {
	t.Parallel()

	doer := &failingDoer{fails: 100}
	rec := &sleepRecorder{}
	c := NewChecker(doer, Config{Retries: 1, RetryDelay: time.Second}, nil, WithSleep(rec.sleep))

	out := c.Check(context.Background(), "grace")
	assert.Equal(t, Errored, out.Status)
	assert.Contains(t, out.Reason, "connection refused")
	assert.Equal(t, 2, doer.calls)
	assert.Len(t, rec.sleeps, 1)
}

func TestCheckClientTimeoutIsRetried(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	client, err := httpx.NewClient(httpx.ClientConfig{Timeout: 50 * time.Millisecond, MaxConns: 1})
	require.NoError(t, err)

	rec := &sleepRecorder{}
	c := NewChecker(client, Config{
		Endpoint:   server.URL + "/check/{}",
		Retries:    1,
		RetryDelay: time.Second,
	}, nil, WithSleep(rec.sleep))

	out := c.Check(context.Background(), "slowpoke")
	assert.Equal(t, Errored, out.Status)
	assert.Contains(t, out.Reason, "Client.Timeout")
	assert.Equal(t, []time.Duration{time.Second}, rec.sleeps)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestBackoffSaturates(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10*time.Second, backoff(10*time.Second, 0))
	assert.Equal(t, 40*time.Second, backoff(10*time.Second, 2))
	assert.Equal(t, time.Second<<maxBackoffShift, backoff(time.Second, 50))
	assert.Equal(t, time.Duration(math.MaxInt64), backoff(time.Duration(math.MaxInt64/2), 3))
	assert.Equal(t, time.Duration(math.MaxInt64), backoff(1000000*time.Hour, maxBackoffShift))
}

func TestCheckRateLimitBackoffNeverNegative(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{{429, ""}}}
	rec := &sleepRecorder{}
	c := newTestChecker(t, script, 3, time.Duration(math.MaxInt64/2), rec)

	out := c.Check(context.Background(), "patient")
	assert.Equal(t, "Max retries exceeded", out.Reason)
	require.Len(t, rec.sleeps, 3)
	for _, d := range rec.sleeps {
		assert.Positive(t, d)
	}
}

func TestCheckCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{{429, ""}}}
	server := httptest.NewServer(script)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewChecker(server.Client(), Config{
		Endpoint:   server.URL + "/check/{}",
		Retries:    5,
		RetryDelay: time.Hour,
	}, nil)

	done := make(chan Outcome, 1)
	go func() { done <- c.Check(ctx, "heidi") }()

	require.Eventually(t, func() bool { return script.requests() == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case out := <-done:
		assert.Equal(t, Errored, out.Status)
		assert.Equal(t, context.Canceled.Error(), out.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("Check did not return after cancellation")
	}
}

func TestCheckRateLimiterWaits(t *testing.T) {
	t.Parallel()

	script := &scriptedServer{responses: []scriptedResponse{{200, `{"available":false}`}}}
	server := httptest.NewServer(script)
	defer server.Close()

	c := NewChecker(server.Client(), Config{
		Endpoint:  server.URL + "/check/{}",
		RateLimit: 20,
	}, nil)

	start := time.Now()
	for _, name := range []string{"ivan", "judy", "kim"} {
		assert.Equal(t, Taken, c.Check(context.Background(), name).Status)
	}
	// Burst of 1 at 20/s: the 2nd and 3rd requests wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 250)
	assert.Len(t, []rune(truncate(long, 200)), 200)
	assert.Equal(t, "short", truncate("short", 200))
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "taken", Taken.String())
	assert.Equal(t, "errored", Errored.String())
}
