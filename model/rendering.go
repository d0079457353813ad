package model

import (
	"fmt"
	"io"
)

const (
	gridPosBlock = "██"
	gridPosEmpty = "  "

	// ANSI cursor-home and erase-display
	clearSequence = "\033[H\033[2J"
)

// FrameView is the read side a renderer needs from a generation
type FrameView interface {
	Size() int
	CellState(row, col int) (uint8, error)
	AliveCount() int
}

// TerminalRenderer implements basic terminal rendering
type TerminalRenderer struct {
	// ClearScreen emits an ANSI clear before every frame
	ClearScreen bool
}

// Render draws the grid followed by the alive-cell label
func (r *TerminalRenderer) Render(w io.Writer, v FrameView) error {
	if r.ClearScreen {
		if _, err := io.WriteString(w, clearSequence); err != nil {
			return err
		}
	}
	size := v.Size()
	buf := make([]byte, 0, size*len(gridPosBlock)+1)
	for row := range size {
		buf = buf[:0]
		for col := range size {
			if state, _ := v.CellState(row, col); state == 1 {
				buf = append(buf, gridPosBlock...)
			} else {
				buf = append(buf, gridPosEmpty...)
			}
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Alive Cells: %d\n", v.AliveCount())
	return err
}

// CellFromPixel maps a pointer position to the cell under it
func CellFromPixel(x, y, cellSize int) (row, col int) {
	return y / cellSize, x / cellSize
}
