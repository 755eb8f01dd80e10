package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/5c4lar/Bear/internal/metrics"
	"github.com/5c4lar/Bear/internal/report"
)

// Store holds every execution reported during one intercept session,
// keyed by pid, and persists the accumulated report to disk on every
// mutation via an atomic temp-file-then-rename write (spec.md §4.2
// "Persistence").
type Store struct {
	mu       sync.Mutex
	context  report.Context
	builders map[int32]*builder
	order    []int32 // preserves first-seen pid order for deterministic output

	destination string

	// rootPid is the pid of the first execution opened in this
	// session: the top-level process intercept was invoked against.
	// Once its builder closes the whole build is considered finished.
	rootPid   int32
	haveRoot  bool
}

// NewStore creates an empty Store that persists to destination.
func NewStore(destination string, context report.Context) *Store {
	return &Store{
		context:     context,
		builders:    make(map[int32]*builder),
		destination: destination,
	}
}

// Start opens a new execution for pid. Returns ErrAlreadyOpen if pid
// already has a builder.
func (s *Store) Start(pid int32, cmd report.Command, ppid *int, ev report.Event) error {
	s.mu.Lock()
	b, exists := s.builders[pid]
	if !exists {
		b = newBuilder()
		s.builders[pid] = b
		s.order = append(s.order, pid)
		if !s.haveRoot {
			s.rootPid = pid
			s.haveRoot = true
		}
	}
	s.mu.Unlock()

	pidCopy := int(pid)
	return b.start(cmd, &pidCopy, ppid, ev)
}

// Append appends a non-start event to pid's execution.
func (s *Store) Append(pid int32, ev report.Event) error {
	s.mu.Lock()
	b, ok := s.builders[pid]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownPid
	}
	return b.append(ev)
}

// RootClosed reports whether the top-level execution this session was
// opened for has received its stop event.
func (s *Store) RootClosed() bool {
	s.mu.Lock()
	if !s.haveRoot {
		s.mu.Unlock()
		return false
	}
	b := s.builders[s.rootPid]
	s.mu.Unlock()
	return b.closed()
}

// RootPid returns the top-level pid and whether one has been recorded
// yet.
func (s *Store) RootPid() (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootPid, s.haveRoot
}

// Snapshot builds the full Report as it stands right now.
func (s *Store) Snapshot() report.Report {
	s.mu.Lock()
	order := append([]int32(nil), s.order...)
	builders := make([]*builder, len(order))
	for i, pid := range order {
		builders[i] = s.builders[pid]
	}
	ctx := s.context
	s.mu.Unlock()

	executions := make([]report.Execution, len(builders))
	for i, b := range builders {
		executions[i] = b.snapshot()
	}
	return report.Report{Context: ctx, Executions: executions}
}

// Persist writes the current snapshot to s.destination via a temp file
// in the same directory followed by an atomic rename, so a reader
// never observes a partially written report (spec.md §8 property 1).
func (s *Store) Persist() error {
	start := time.Now()
	defer func() { metrics.ObserveReportFlush(time.Since(start).Seconds()) }()

	data, err := s.Snapshot().MarshalIndent()
	if err != nil {
		return fmt.Errorf("collector: marshal report: %w", err)
	}

	dir := filepath.Dir(s.destination)
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("collector: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("collector: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("collector: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.destination); err != nil {
		return fmt.Errorf("collector: rename into place: %w", err)
	}
	return nil
}
