// Package collector implements the long-lived, per-build RPC service a
// supervisor reports its execution lifecycle to (spec.md §4.2): it
// holds the in-progress execution report in memory, persists it on
// every change, and answers each supervisor's environment-overlay
// request before it spawns the real program.
package collector

import (
	"errors"
	"sync"

	"github.com/5c4lar/Bear/internal/report"
)

// BuilderState is the per-execution state machine spec.md §3 names:
// an execution starts in Empty, moves to Open on its "start" event,
// and to Closed on its "stop" event. No events are accepted once
// Closed.
type BuilderState int

const (
	Empty BuilderState = iota
	Open
	Closed
)

var (
	ErrAlreadyOpen    = errors.New("collector: execution already started")
	ErrNotOpen        = errors.New("collector: execution has not started")
	ErrAlreadyClosed  = errors.New("collector: execution already stopped")
	ErrUnknownPid     = errors.New("collector: no execution is open for this pid")
)

// builder accumulates one execution's events under its own state
// machine, independent of every other pid's builder.
type builder struct {
	mu        sync.Mutex
	state     BuilderState
	execution report.Execution
}

func newBuilder() *builder {
	return &builder{state: Empty}
}

// start transitions Empty -> Open, recording the command and the
// first ("start") event.
func (b *builder) start(cmd report.Command, pid, ppid *int, ev report.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Empty {
		return ErrAlreadyOpen
	}
	b.execution = report.Execution{
		Command: cmd,
		Run:     report.Run{Pid: pid, Ppid: ppid, Events: []report.Event{ev}},
	}
	b.state = Open
	return nil
}

// append adds a non-start event to an Open builder, transitioning to
// Closed when ev is a "stop" event.
func (b *builder) append(ev report.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Empty:
		return ErrNotOpen
	case Closed:
		return ErrAlreadyClosed
	}

	b.execution.Run.Events = append(b.execution.Run.Events, ev)
	if ev.Type == report.EventStopped {
		b.state = Closed
	}
	return nil
}

func (b *builder) snapshot() report.Execution {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.execution
}

func (b *builder) closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == Closed
}
