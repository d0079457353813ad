package model

const DefaultHistoryDepth = 5

// History keeps the fingerprints of recent generations for cycle detection
type History struct {
	depth  int
	hashes []string
}

// NewHistory creates a History remembering up to depth generations
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{depth: depth}
}

// Record adds the grid's current state and drops the oldest entry past depth
func (h *History) Record(g *Grid) {
	h.hashes = append(h.hashes, g.Fingerprint())
	if len(h.hashes) > h.depth {
		h.hashes = h.hashes[1:]
	}
}

// Period reports the smallest p such that the grid's current state matches the
// state recorded p generations ago. 1 is a still life, 0 means no repeat was seen.
func (h *History) Period(g *Grid) int {
	current := g.Fingerprint()
	for p := 1; p <= len(h.hashes); p++ {
		if h.hashes[len(h.hashes)-p] == current {
			return p
		}
	}
	return 0
}

// Clear forgets every recorded generation
func (h *History) Clear() {
	h.hashes = nil
}
