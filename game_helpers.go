package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/lifegrid/model"
	"github.com/sheikhrachel/lifegrid/sim"
	"github.com/sheikhrachel/lifegrid/utils"
)

const helpText = `Commands:
  toggle ROW COL   flip one cell
  click X Y        flip the cell under pixel (X,Y)
  start | stop     run or pause the simulation
  step             advance one generation
  reset            kill every cell
  random [SEED]    fill the grid randomly
  show             redraw the grid
  quit             exit
`

var errQuit = errors.New("quit")

// command is one parsed line of user input
type command struct {
	name string
	args []int
}

// parseCommand splits a line into a command name and integer arguments
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, nil
	}
	cmd := command{name: fields[0]}

	want := map[string][2]int{
		"toggle": {2, 2},
		"click":  {2, 2},
		"random": {0, 1},
	}[cmd.name]
	if n := len(fields) - 1; n < want[0] || n > want[1] {
		return cmd, errors.Errorf("[parseCommand] %s takes %d argument(s), got %d", cmd.name, want[1], n)
	}

	for _, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return cmd, errors.Wrapf(err, "[parseCommand] %s: bad argument %q", cmd.name, f)
		}
		cmd.args = append(cmd.args, v)
	}
	return cmd, nil
}

// syncWriter serializes writes from the render loop and the command loop
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// session wires user input and terminal output to a Runner
type session struct {
	runner   *sim.Runner
	renderer *model.TerminalRenderer
	out      *syncWriter
	cellSize int
	rng      *rand.Rand
	logger   *slog.Logger
	stats    *utils.Stats

	// frames holds at most the latest unrendered frame
	frames    chan sim.Frame
	closeOnce sync.Once
}

// newSession sets up the grid, runner and renderer from config
func newSession(config utils.Config, out io.Writer, clearScreen bool, logger *slog.Logger) (*session, error) {
	grid, err := model.NewGrid(config.Size, config.GridOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "[newSession] failed to create grid")
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &session{
		renderer: &model.TerminalRenderer{ClearScreen: clearScreen},
		out:      &syncWriter{w: out},
		cellSize: config.CellSize,
		rng:      rand.New(rand.NewPCG(seed, 0)),
		logger:   logger,
		stats:    utils.NewStats(),
		frames:   make(chan sim.Frame, 1),
	}
	s.runner = sim.NewRunner(grid,
		sim.WithInterval(time.Duration(config.Interval)),
		sim.WithHistoryDepth(config.HistoryDepth),
		sim.WithLogger(logger),
		sim.WithObserver(s.publish),
	)

	logger.Info("grid ready",
		"size", grid.Size(),
		"boundary", grid.Boundary().String(),
		"interval", time.Duration(config.Interval),
		"seed", seed,
	)
	return s, nil
}

// publish queues f for rendering, replacing any frame not yet drawn
func (s *session) publish(f sim.Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

func (s *session) closeFrames() {
	s.closeOnce.Do(func() { close(s.frames) })
}

// run reads commands from in until quit, EOF or ctx cancellation
func (s *session) run(ctx context.Context, in io.Reader) error {
	eg, ctx := errgroup.WithContext(ctx)

	lines := make(chan string)
	readErr := make(chan error, 1)
	// Not part of the group: a blocked read on stdin cannot be interrupted.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	eg.Go(func() error {
		var buf bytes.Buffer
		for f := range s.frames {
			now := time.Now()
			s.stats.Update(f.Generation, f.Alive, f.Running, now)

			// one Write per frame so command output never splits a grid
			buf.Reset()
			if err := s.renderer.Render(&buf, f); err != nil {
				return errors.Wrap(err, "[session] failed to render frame")
			}
			displayGameStatus(&buf, f, s.stats, now)
			if _, err := s.out.Write(buf.Bytes()); err != nil {
				return errors.Wrap(err, "[session] failed to write frame")
			}
		}
		return nil
	})

	eg.Go(func() error {
		defer s.closeFrames()
		defer s.runner.Stop()

		s.publish(s.runner.Frame())
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					select {
					case err := <-readErr:
						return errors.Wrap(err, "[session] failed to read input")
					default:
						return nil
					}
				}
				if err := s.execute(ctx, line); err != nil {
					if errors.Is(err, errQuit) {
						return nil
					}
					fmt.Fprintf(s.out, "error: %v\n", err)
				}
			}
		}
	})

	return eg.Wait()
}

// displayGameStatus shows the generation summary under a rendered frame
func displayGameStatus(w io.Writer, f sim.Frame, stats *utils.Stats, now time.Time) {
	status := "Stopped"
	if f.Running {
		status = "Running"
	}
	switch {
	case f.Alive == 0:
		status += " | Extinct"
	case f.Period == 1:
		status += " | Still life"
	case f.Period > 1:
		status += fmt.Sprintf(" | Oscillating (period %d)", f.Period)
	}
	fmt.Fprintf(w, "Gen: %d | Avg Pop: %.1f | %.1f gen/sec | Runtime: %.1fs | %s\n",
		f.Generation, stats.AveragePopulation, stats.GenerationsPerSecond, stats.Runtime(now).Seconds(), status)
}

// execute applies one line of input to the runner
func (s *session) execute(ctx context.Context, line string) error {
	cmd, err := parseCommand(line)
	if err != nil {
		return err
	}

	switch cmd.name {
	case "":
	case "toggle":
		return s.runner.Toggle(cmd.args[0], cmd.args[1])
	case "click":
		// integer division truncates toward zero, so -1..-19 would land on cell 0
		if cmd.args[0] < 0 || cmd.args[1] < 0 {
			return errors.Wrapf(model.ErrOutOfBounds, "[execute] pixel (%d,%d)", cmd.args[0], cmd.args[1])
		}
		row, col := model.CellFromPixel(cmd.args[0], cmd.args[1], s.cellSize)
		return s.runner.Toggle(row, col)
	case "start":
		if !s.runner.Start(ctx) {
			s.logger.Debug("start ignored, already running")
		}
	case "stop":
		if !s.runner.Stop() {
			s.logger.Debug("stop ignored, not running")
		}
	case "step":
		s.runner.StepOnce()
	case "reset":
		s.runner.Reset()
	case "random":
		src := s.rng
		if len(cmd.args) == 1 {
			src = rand.New(rand.NewPCG(uint64(cmd.args[0]), 0))
		}
		s.runner.Randomize(src)
	case "show":
		s.publish(s.runner.Frame())
	case "help", "?":
		_, err = io.WriteString(s.out, helpText)
		return err
	case "quit", "exit", "q":
		return errQuit
	default:
		return errors.Errorf("[execute] unknown command %q, try help", cmd.name)
	}
	return nil
}
