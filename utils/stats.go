package utils

import "time"

// Stats for performance monitoring
type Stats struct {
	GenerationsPerSecond float64
	AveragePopulation    float64
	TotalGenerations     int
	StartTime            time.Time

	// lastStep is when TotalGenerations last advanced while running, zero when paused
	lastStep time.Time
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Update folds in a frame seen at now. Only frames that advance the generation
// count toward the averages; the rate is generations gained over wall time while running.
func (s *Stats) Update(generation, population int, running bool, now time.Time) {
	if !running {
		s.GenerationsPerSecond = 0
		s.lastStep = time.Time{}
	}

	if generation < s.TotalGenerations {
		// grid was reset
		s.TotalGenerations = generation
		s.AveragePopulation = 0
		s.GenerationsPerSecond = 0
		s.lastStep = time.Time{}
		return
	}
	if generation == s.TotalGenerations {
		return
	}

	if running {
		if !s.lastStep.IsZero() {
			if elapsed := now.Sub(s.lastStep); elapsed > 0 {
				s.GenerationsPerSecond = float64(generation-s.TotalGenerations) / elapsed.Seconds()
			}
		}
		s.lastStep = now
	}
	s.TotalGenerations = generation

	// Simple moving average for population
	if s.AveragePopulation == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation = (s.AveragePopulation * 0.9) + (float64(population) * 0.1)
	}
}

// Runtime returns the time elapsed since the stats were created
func (s *Stats) Runtime(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}
