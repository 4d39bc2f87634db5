// Package orchestrator runs one process request at a time against a backend:
// it submits the request, polls progress, copies the result to the clipboard
// and supports cancellation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/selection"
)

// DefaultInterval is the progress polling period.
const DefaultInterval = 300 * time.Millisecond

var (
	ErrBusy       = errors.New("processing already in progress")
	ErrNotRunning = errors.New("no processing in progress")

	ErrClipboardUnsupported = errors.New("no clipboard utility available")
)

// Backend is the processing side of the API.
type Backend interface {
	Process(ctx context.Context, req protocol.ProcessRequest) (*protocol.ProcessResponse, error)
	Progress(ctx context.Context) (float64, error)
}

// State is the lifecycle of a run.
type State int

const (
	Idle State = iota
	Submitting
	Polling
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Running reports whether a request is in flight.
func (s State) Running() bool {
	return s == Submitting || s == Polling
}

// Snapshot is the observable state of the orchestrator.
type Snapshot struct {
	State    State
	Progress float64
	// MatchedCount is the number of files the running request covers.
	MatchedCount int
	// Result is set only in Completed.
	Result *protocol.ProcessResponse
	// Err is set only in Failed.
	Err error
	// ClipboardErr is set in Completed when the copy failed; Result is
	// still available.
	ClipboardErr error
}

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	backend   Backend
	clipboard Clipboard
	logger    *zap.Logger
	interval  time.Duration
	observer  func(Snapshot)

	mu       sync.Mutex
	snap     Snapshot
	seq      uint64
	run      uint64
	stopPoll context.CancelFunc
	done     chan struct{}

	emitMu  sync.Mutex
	emitted uint64

	wg sync.WaitGroup
}

type Option func(*Orchestrator)

// WithInterval sets the progress polling period.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithObserver registers fn to receive every state change. Calls are
// serialized and never deliver an older snapshot after a newer one.
func WithObserver(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New returns an idle orchestrator. A nil clipboard disables copying.
func New(backend Backend, clipboard Clipboard, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:   backend,
		clipboard: clipboard,
		logger:    zap.NewNop(),
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Start validates the selection and, when it is valid, submits it. A
// validation error leaves the state unchanged. ctx bounds the process call
// itself; Cancel does not abort that call, it only discards its result.
func (o *Orchestrator) Start(ctx context.Context, sel *selection.Store) error {
	req, err := sel.BuildRequest()
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.snap.State.Running() {
		o.mu.Unlock()
		return ErrBusy
	}
	o.run++
	run := o.run
	pollCtx, stop := context.WithCancel(ctx)
	o.stopPoll = stop
	o.done = make(chan struct{})
	snap, seq := o.setLocked(Snapshot{State: Submitting, MatchedCount: req.MatchedCount})
	o.mu.Unlock()
	o.emit(snap, seq)

	o.logger.Info("Processing started",
		zap.Int("files", req.MatchedCount),
		zap.Strings("extensions", req.Extensions))

	o.wg.Add(1)
	go o.submit(ctx, run, req)

	o.mu.Lock()
	if o.run != run || o.snap.State != Submitting {
		o.mu.Unlock()
		return nil
	}
	next := o.snap
	next.State = Polling
	snap, seq = o.setLocked(next)
	o.mu.Unlock()
	o.emit(snap, seq)

	o.wg.Add(1)
	go o.poll(pollCtx, run)
	return nil
}

// Cancel stops a running request. The poll stops at once; the process
// call's eventual result is discarded.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if !o.snap.State.Running() {
		o.mu.Unlock()
		return ErrNotRunning
	}
	o.stopPoll()
	next := o.snap
	next.State = Cancelled
	snap, seq := o.setLocked(next)
	close(o.done)
	o.mu.Unlock()

	o.logger.Info("Processing cancelled")
	o.emit(snap, seq)
	return nil
}

// Wait blocks until the current run reaches a terminal state or ctx is
// done, and returns the snapshot at that point.
func (o *Orchestrator) Wait(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return o.Snapshot(), nil
	}
	select {
	case <-done:
		return o.Snapshot(), nil
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	}
}

// Drain waits for every goroutine started by Start, including process
// calls whose result was discarded by Cancel.
func (o *Orchestrator) Drain() {
	o.wg.Wait()
}

func (o *Orchestrator) submit(ctx context.Context, run uint64, req selection.Request) {
	defer o.wg.Done()
	resp, err := o.backend.Process(ctx, req.Payload())
	o.finish(run, resp, err)
}

func (o *Orchestrator) finish(run uint64, resp *protocol.ProcessResponse, err error) {
	o.mu.Lock()
	if o.run != run || !o.snap.State.Running() {
		o.mu.Unlock()
		o.logger.Debug("Discarding result of cancelled run", zap.Error(err))
		return
	}
	o.stopPoll()

	next := o.snap
	switch {
	case err != nil:
		next.State, next.Err = Failed, err
	case resp == nil || !resp.Success:
		msg := "processing failed"
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		next.State, next.Err = Failed, errors.New(msg)
	default:
		next.State, next.Result, next.Progress = Completed, resp, 100
		// Under the lock: a Cancel cannot land between the transition
		// and the copy.
		if o.clipboard != nil {
			next.ClipboardErr = o.clipboard.WriteAll(resp.Content)
		}
	}
	snap, seq := o.setLocked(next)
	close(o.done)
	o.mu.Unlock()

	switch snap.State {
	case Failed:
		o.logger.Error("Processing failed", zap.Error(snap.Err))
	case Completed:
		for _, e := range resp.Errors {
			o.logger.Warn("File skipped by backend", zap.String("detail", e))
		}
		if snap.ClipboardErr != nil {
			o.logger.Warn("Clipboard write failed", zap.Error(snap.ClipboardErr))
		}
		o.logger.Info("Processing completed",
			zap.Int("files", resp.FileCount),
			zap.String("size", resp.SizeDisplay),
			zap.Float64("duration", resp.Duration))
	}
	o.emit(snap, seq)
}

// poll queries progress once per tick. The query runs on the ticker's
// goroutine, so a slow response makes the ticker drop ticks rather than
// stacking requests.
func (o *Orchestrator) poll(ctx context.Context, run uint64) {
	defer o.wg.Done()
	t := time.NewTicker(o.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		pct, err := o.backend.Progress(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Debug("Progress query failed", zap.Error(err))
			continue
		}

		o.mu.Lock()
		if o.run != run || !o.snap.State.Running() {
			o.mu.Unlock()
			return
		}
		if pct <= o.snap.Progress {
			o.mu.Unlock()
			continue
		}
		next := o.snap
		next.Progress = pct
		snap, seq := o.setLocked(next)
		o.mu.Unlock()
		o.emit(snap, seq)
	}
}

func (o *Orchestrator) setLocked(s Snapshot) (Snapshot, uint64) {
	o.snap = s
	o.seq++
	return s, o.seq
}

func (o *Orchestrator) emit(s Snapshot, seq uint64) {
	if o.observer == nil {
		return
	}
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	if seq <= o.emitted {
		return
	}
	o.emitted = seq
	o.observer(s)
}
