package sim

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikhrachel/lifegrid/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func blinkerRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	g, err := model.NewGrid(5)
	require.NoError(t, err)
	for col := 1; col <= 3; col++ {
		require.NoError(t, g.Set(2, col, true))
	}
	return NewRunner(g, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func TestRunnerStartsStopped(t *testing.T) {
	r := blinkerRunner(t)
	assert.False(t, r.Running())
	assert.False(t, r.Stop(), "stopping a stopped runner is a no-op")
	assert.Equal(t, 0, r.Frame().Generation)
}

func TestRunnerStartStepsImmediately(t *testing.T) {
	r := blinkerRunner(t, WithInterval(time.Hour))
	require.True(t, r.Start(context.Background()))
	defer r.Stop()

	f := r.Frame()
	assert.True(t, f.Running)
	assert.Equal(t, 1, f.Generation)
	for row := 1; row <= 3; row++ {
		state, err := f.CellState(row, 2)
		require.NoError(t, err)
		assert.Equal(t, uint8(1), state)
	}
	assert.Equal(t, 3, f.AliveCount())
}

func TestRunnerStartIsIdempotent(t *testing.T) {
	r := blinkerRunner(t, WithInterval(time.Hour))
	require.True(t, r.Start(context.Background()))
	assert.False(t, r.Start(context.Background()))
	assert.Equal(t, 1, r.Frame().Generation, "second Start must not step")

	assert.True(t, r.Stop())
	assert.False(t, r.Stop())
	assert.False(t, r.Running())
}

func TestRunnerStepsPeriodicallyUntilStopped(t *testing.T) {
	r := blinkerRunner(t, WithInterval(2*time.Millisecond))
	require.True(t, r.Start(context.Background()))

	require.Eventually(t, func() bool {
		return r.Frame().Generation >= 4
	}, 2*time.Second, time.Millisecond)

	require.True(t, r.Stop())
	gen := r.Frame().Generation
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, gen, r.Frame().Generation, "no step may run after Stop returns")
}

func TestRunnerRestart(t *testing.T) {
	r := blinkerRunner(t, WithInterval(time.Hour))
	require.True(t, r.Start(context.Background()))
	require.True(t, r.Stop())
	require.True(t, r.Start(context.Background()))
	defer r.Stop()
	assert.Equal(t, 2, r.Frame().Generation)
}

func TestRunnerContextCancelStops(t *testing.T) {
	r := blinkerRunner(t, WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, r.Start(ctx))
	cancel()

	require.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond)
	assert.False(t, r.Stop())
	assert.True(t, r.Start(context.Background()), "runner can start again after its context ended")
	r.Stop()
}

func TestRunnerObserverSeesEveryMutation(t *testing.T) {
	var (
		mu     sync.Mutex
		frames []Frame
	)
	r := blinkerRunner(t, WithObserver(func(f Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}))

	require.NoError(t, r.Toggle(0, 0))
	r.StepOnce()
	r.Reset()
	r.Randomize(rand.New(rand.NewPCG(3, 4)))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, frames, 4)
	assert.Equal(t, 4, frames[0].Alive)
	assert.Equal(t, 1, frames[1].Generation)
	assert.Equal(t, 0, frames[2].Alive)
	assert.Equal(t, r.Frame().Alive, frames[3].Alive)
}

func TestRunnerToggleOutOfBounds(t *testing.T) {
	r := blinkerRunner(t)
	err := r.Toggle(5, 0)
	assert.True(t, errors.Is(err, model.ErrOutOfBounds))
	assert.Equal(t, 3, r.Frame().Alive)
}

func TestRunnerDetectsPeriod(t *testing.T) {
	r := blinkerRunner(t)
	assert.Equal(t, 0, r.StepOnce().Period)
	assert.Equal(t, 2, r.StepOnce().Period)

	r.Reset()
	assert.Equal(t, 0, r.Frame().Period, "edits restart detection")
	assert.Equal(t, 1, r.StepOnce().Period, "an empty grid is a still life")
}

func TestRunnerCommandsDuringRun(t *testing.T) {
	r := blinkerRunner(t, WithInterval(time.Millisecond))
	require.True(t, r.Start(context.Background()))
	defer r.Stop()

	src := rand.New(rand.NewPCG(11, 0))
	for i := 0; i < 50; i++ {
		r.Randomize(src)
		_ = r.Toggle(i%5, (i/5)%5)
		if i%10 == 0 {
			r.Reset()
		}
	}
	f := r.Frame()
	count := 0
	for _, row := range f.Cells {
		for _, c := range row {
			require.LessOrEqual(t, c, uint8(1))
			count += int(c)
		}
	}
	assert.Equal(t, f.Alive, count)
}

func TestFrameCellStateBounds(t *testing.T) {
	f := Frame{Cells: [][]uint8{{0, 1}, {1, 0}}}
	assert.Equal(t, 2, f.Size())
	_, err := f.CellState(2, 0)
	assert.True(t, errors.Is(err, model.ErrOutOfBounds))
}
