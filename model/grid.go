package model

import (
	"crypto/md5"
	"fmt"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/rules"
)

const (
	DefaultSize = 20

	minToroidalSize = 3
)

var (
	// ErrInvalidSize is returned when a grid is constructed with a non-positive size
	ErrInvalidSize = errors.New("invalid grid size")
	// ErrOutOfBounds is returned for point access outside [0, size)
	ErrOutOfBounds = errors.New("coordinate out of bounds")
)

// Boundary decides how neighbor lookups treat positions past the grid edge
type Boundary int

const (
	// Bounded treats off-grid positions as absent. This is the default.
	Bounded Boundary = iota
	// Toroidal wraps off-grid positions to the opposite edge. Opt-in only.
	Toroidal
)

func (b Boundary) String() string {
	switch b {
	case Bounded:
		return "bounded"
	case Toroidal:
		return "toroidal"
	}
	return fmt.Sprintf("boundary(%d)", int(b))
}

// ParseBoundary maps a config value onto a Boundary
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "", "bounded":
		return Bounded, nil
	case "toroidal":
		return Toroidal, nil
	}
	return Bounded, errors.Errorf("[ParseBoundary] unknown boundary %q", s)
}

// RandomSource supplies the draws used by Randomize. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// Option configures a Grid at construction
type Option func(*Grid)

// WithBoundary selects the boundary policy
func WithBoundary(b Boundary) Option {
	return func(g *Grid) { g.boundary = b }
}

// Grid owns the cell states of one Game of Life board.
// It is not safe for concurrent use; callers serialize access.
type Grid struct {
	size       int
	boundary   Boundary
	generation int

	// cur holds the live generation, next is scratch space for Step
	cur  [][]uint8
	next [][]uint8
}

// NewGrid creates an all-dead size x size grid
func NewGrid(size int, opts ...Option) (*Grid, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "[NewGrid] size %d", size)
	}
	g := &Grid{
		size: size,
		cur:  newCells(size),
		next: newCells(size),
	}
	for _, opt := range opts {
		opt(g)
	}
	// below 3 wrapped offsets collide, counting one cell (or the cell itself) repeatedly
	if g.boundary == Toroidal && size < minToroidalSize {
		return nil, errors.Wrapf(ErrInvalidSize, "[NewGrid] toroidal grid needs size >= %d, got %d", minToroidalSize, size)
	}
	return g, nil
}

func newCells(size int) [][]uint8 {
	cells := make([][]uint8, size)
	for i := range cells {
		cells[i] = make([]uint8, size)
	}
	return cells
}

// Size returns the grid dimension
func (g *Grid) Size() int {
	return g.size
}

// Boundary returns the configured boundary policy
func (g *Grid) Boundary() Boundary {
	return g.boundary
}

// Generation returns how many steps have run since construction or the last reset
func (g *Grid) Generation() int {
	return g.generation
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.size && col >= 0 && col < g.size
}

func (g *Grid) checkBounds(op string, row, col int) error {
	if !g.inBounds(row, col) {
		return errors.Wrapf(ErrOutOfBounds, "[%s] (%d,%d) outside %dx%d grid", op, row, col, g.size, g.size)
	}
	return nil
}

// Toggle flips a cell between alive and dead
func (g *Grid) Toggle(row, col int) error {
	if err := g.checkBounds("Toggle", row, col); err != nil {
		return err
	}
	g.cur[row][col] = 1 - g.cur[row][col]
	return nil
}

// Set sets a cell to alive (true) or dead (false)
func (g *Grid) Set(row, col int, alive bool) error {
	if err := g.checkBounds("Set", row, col); err != nil {
		return err
	}
	g.cur[row][col] = 0
	if alive {
		g.cur[row][col] = 1
	}
	return nil
}

// CellState returns 1 for a live cell and 0 for a dead one
func (g *Grid) CellState(row, col int) (uint8, error) {
	if err := g.checkBounds("CellState", row, col); err != nil {
		return 0, err
	}
	return g.cur[row][col], nil
}

// Reset kills every cell
func (g *Grid) Reset() {
	for row := range g.size {
		clear(g.cur[row])
	}
	g.generation = 0
}

// Randomize sets every cell alive or dead with equal probability, one draw per cell in row-major order
func (g *Grid) Randomize(src RandomSource) {
	for row := range g.size {
		for col := range g.size {
			g.cur[row][col] = uint8(src.IntN(2) & 1)
		}
	}
}

// CountAliveNeighbors counts the live cells among the 8 surrounding positions
func (g *Grid) CountAliveNeighbors(row, col int) (int, error) {
	if err := g.checkBounds("CountAliveNeighbors", row, col); err != nil {
		return 0, err
	}
	return g.countNeighbors(row, col), nil
}

func (g *Grid) countNeighbors(row, col int) int {
	count := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if g.boundary == Toroidal {
				r = (r + g.size) % g.size
				c = (c + g.size) % g.size
			} else if !g.inBounds(r, c) {
				continue
			}
			count += int(g.cur[r][c])
		}
	}
	return count
}

// Step advances the grid by one generation. Every cell of the next generation
// is computed from the current one before the buffers are swapped.
func (g *Grid) Step() {
	for row := range g.size {
		for col := range g.size {
			g.next[row][col] = rules.NextState(g.countNeighbors(row, col), g.cur[row][col])
		}
	}
	g.cur, g.next = g.next, g.cur
	g.generation++
}

// AliveCount returns the total number of living cells
func (g *Grid) AliveCount() (count int) {
	for row := range g.size {
		for col := range g.size {
			count += int(g.cur[row][col])
		}
	}
	return
}

// Snapshot returns a copy of the current generation
func (g *Grid) Snapshot() [][]uint8 {
	cells := newCells(g.size)
	for row := range g.size {
		copy(cells[row], g.cur[row])
	}
	return cells
}

// Fingerprint returns an MD5 hash of the current cell states
func (g *Grid) Fingerprint() string {
	h := md5.New()
	for row := range g.size {
		h.Write(g.cur[row])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
