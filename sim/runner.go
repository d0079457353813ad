package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/model"
)

const DefaultInterval = 100 * time.Millisecond

// Frame is a consistent copy of one generation handed to the presentation layer
type Frame struct {
	Generation int
	Alive      int
	Cells      [][]uint8
	Running    bool
	// Period is the detected oscillation period, 1 for a still life, 0 if none
	Period int
}

// Size returns the grid dimension of the frame
func (f Frame) Size() int {
	return len(f.Cells)
}

// CellState returns the state of one cell in the frame
func (f Frame) CellState(row, col int) (uint8, error) {
	if row < 0 || row >= len(f.Cells) || col < 0 || col >= len(f.Cells) {
		return 0, errors.Wrapf(model.ErrOutOfBounds, "[Frame.CellState] (%d,%d)", row, col)
	}
	return f.Cells[row][col], nil
}

// AliveCount returns the number of live cells in the frame
func (f Frame) AliveCount() int {
	return f.Alive
}

// Option configures a Runner
type Option func(*Runner)

// WithInterval sets the delay between scheduled steps
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger used for lifecycle events
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithObserver registers a callback receiving a Frame after every mutation.
// It runs outside the runner's lock and must not call Stop.
func WithObserver(fn func(Frame)) Option {
	return func(r *Runner) { r.observer = fn }
}

// WithHistoryDepth sets how many generations are kept for cycle detection
func WithHistoryDepth(depth int) Option {
	return func(r *Runner) { r.history = model.NewHistory(depth) }
}

// Runner drives a Grid: it owns the Stopped/Running state, issues periodic steps
// while running and serializes every command against in-flight steps.
type Runner struct {
	mu       sync.Mutex
	grid     *model.Grid
	history  *model.History
	interval time.Duration
	logger   *slog.Logger
	observer func(Frame)

	running bool
	period  int
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRunner wraps grid in a stopped Runner
func NewRunner(grid *model.Grid, opts ...Option) *Runner {
	r := &Runner{
		grid:     grid,
		history:  model.NewHistory(model.DefaultHistoryDepth),
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.history.Record(grid)
	return r
}

// Running reports whether periodic stepping is active
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start steps once immediately and then once per interval until Stop is called
// or ctx is cancelled. It returns false without effect if already running.
func (r *Runner) Start(ctx context.Context) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.running = true
	r.cancel = cancel
	r.done = done
	frame := r.stepLocked()
	r.mu.Unlock()

	r.logger.Info("simulation started", "interval", r.interval, "generation", frame.Generation)
	r.notify(frame)

	go r.loop(loopCtx, done)
	return true
}

// Stop cancels the pending step and waits for the loop to exit, so no step
// runs after it returns. It returns false if the runner was not running.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return false
	}
	r.cancel()
	done := r.done
	r.running, r.cancel, r.done = false, nil, nil
	r.mu.Unlock()

	<-done
	r.logger.Info("simulation stopped", "generation", r.Frame().Generation)
	return true
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			// Parent context cancelled rather than Stop.
			if r.done == done {
				r.cancel()
				r.running, r.cancel, r.done = false, nil, nil
				r.logger.Info("simulation stopped", "reason", ctx.Err())
			}
			r.mu.Unlock()
			return
		case <-ticker.C:
			r.mu.Lock()
			if ctx.Err() != nil {
				r.mu.Unlock()
				continue
			}
			frame := r.stepLocked()
			r.mu.Unlock()
			r.notify(frame)
		}
	}
}

// StepOnce advances exactly one generation regardless of the run state
func (r *Runner) StepOnce() Frame {
	r.mu.Lock()
	frame := r.stepLocked()
	r.mu.Unlock()
	r.notify(frame)
	return frame
}

func (r *Runner) stepLocked() Frame {
	r.grid.Step()
	period := r.history.Period(r.grid)
	r.history.Record(r.grid)
	if period > 0 && period != r.period {
		r.logger.Info("pattern stabilized", "period", period, "generation", r.grid.Generation())
	}
	r.period = period
	if r.grid.AliveCount() == 0 && period == 0 {
		r.logger.Debug("population extinct", "generation", r.grid.Generation())
	}
	return r.frameLocked()
}

// Toggle flips one cell
func (r *Runner) Toggle(row, col int) error {
	r.mu.Lock()
	if err := r.grid.Toggle(row, col); err != nil {
		r.mu.Unlock()
		return err
	}
	frame := r.mutatedLocked()
	r.mu.Unlock()
	r.notify(frame)
	return nil
}

// Reset kills every cell
func (r *Runner) Reset() {
	r.mu.Lock()
	r.grid.Reset()
	frame := r.mutatedLocked()
	r.mu.Unlock()
	r.logger.Debug("grid reset")
	r.notify(frame)
}

// Randomize refills the grid from src
func (r *Runner) Randomize(src model.RandomSource) {
	r.mu.Lock()
	r.grid.Randomize(src)
	frame := r.mutatedLocked()
	r.mu.Unlock()
	r.logger.Debug("grid randomized", "alive", frame.Alive)
	r.notify(frame)
}

// mutatedLocked restarts cycle detection after an edit outside the rules
func (r *Runner) mutatedLocked() Frame {
	r.history.Clear()
	r.history.Record(r.grid)
	r.period = 0
	return r.frameLocked()
}

// Frame returns a copy of the current generation
func (r *Runner) Frame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameLocked()
}

func (r *Runner) frameLocked() Frame {
	return Frame{
		Generation: r.grid.Generation(),
		Alive:      r.grid.AliveCount(),
		Cells:      r.grid.Snapshot(),
		Running:    r.running,
		Period:     r.period,
	}
}

func (r *Runner) notify(f Frame) {
	if r.observer != nil {
		r.observer(f)
	}
}
