package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitTerminated is the conventional 128+SIGTERM status.
const ExitTerminated = 143

// Signals cancels a context on the first SIGINT or SIGTERM and remembers
// which one arrived, so the exit status can tell them apart.
type Signals struct {
	mu     sync.Mutex
	got    os.Signal
	cancel context.CancelFunc
	ch     chan os.Signal
}

func WatchSignals(parent context.Context) (context.Context, *Signals) {
	ctx, cancel := context.WithCancel(parent)
	s := &Signals{cancel: cancel, ch: make(chan os.Signal, 1)}
	signal.Notify(s.ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-s.ch:
			s.deliver(sig)
		case <-ctx.Done():
		}
	}()
	return ctx, s
}

func (s *Signals) deliver(sig os.Signal) {
	s.mu.Lock()
	s.got = sig
	s.mu.Unlock()
	s.cancel()
}

// Stop releases the signal handler and the context.
func (s *Signals) Stop() {
	signal.Stop(s.ch)
	s.cancel()
}

// ExitCode maps an interrupted run to 143 when SIGTERM caused it.
func (s *Signals) ExitCode(code int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == ExitInterrupted && s.got == syscall.SIGTERM {
		return ExitTerminated
	}
	return code
}
