package rules

/*
ApplyConwayRules applies Conway's Game of Life rules to determine the next state of a cell.

A live cell survives with 2 or 3 live neighbors, a dead cell is born with exactly 3,
every other cell is dead in the next generation (B3/S23).
*/
func ApplyConwayRules(neighbors int, alive bool) bool {
	if alive {
		return neighbors == 2 || neighbors == 3
	}
	return neighbors == 3
}

// NextState is ApplyConwayRules over the 0/1 cell encoding
func NextState(neighbors int, cell uint8) uint8 {
	if ApplyConwayRules(neighbors, cell == 1) {
		return 1
	}
	return 0
}
