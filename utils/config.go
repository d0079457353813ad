package utils

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/model"
)

// Config holds the configuration for the game
type Config struct {
	Size         int      `json:"size"`
	CellSize     int      `json:"cell_size"`
	Interval     Duration `json:"interval"`
	Seed         uint64   `json:"seed"`
	Boundary     string   `json:"boundary"`
	HistoryDepth int      `json:"history_depth"`
	LogLevel     string   `json:"log_level"`
	LogFormat    string   `json:"log_format"`
}

// Duration accepts either a Go duration string ("100ms") or nanoseconds in JSON
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		// null leaves the current value in place, like other fields
		return nil
	case float64:
		*d = Duration(time.Duration(val))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return errors.Wrapf(err, "[Duration] invalid duration %q", val)
		}
		*d = Duration(parsed)
	default:
		return errors.Errorf("[Duration] invalid duration %v", v)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Size:         model.DefaultSize,
		CellSize:     20,
		Interval:     Duration(100 * time.Millisecond),
		Boundary:     model.Bounded.String(),
		HistoryDepth: model.DefaultHistoryDepth,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// LoadConfig loads configuration from JSON file
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	if err = config.Validate(); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] invalid config in file: %+v", filename)
	}

	return config, nil
}

// Validate rejects values the engine or the presentation layer cannot run with
func (c Config) Validate() error {
	if c.Size <= 0 {
		return errors.Wrapf(model.ErrInvalidSize, "[Validate] size %d", c.Size)
	}
	if c.CellSize <= 0 {
		return errors.Errorf("[Validate] cell_size must be positive, got %d", c.CellSize)
	}
	if c.Interval <= 0 {
		return errors.Errorf("[Validate] interval must be positive, got %s", time.Duration(c.Interval))
	}
	boundary, err := model.ParseBoundary(c.Boundary)
	if err != nil {
		return errors.Wrap(err, "[Validate]")
	}
	if _, err = model.NewGrid(c.Size, model.WithBoundary(boundary)); err != nil {
		return errors.Wrap(err, "[Validate]")
	}
	return nil
}

// GridOptions translates the config into engine options
func (c Config) GridOptions() []model.Option {
	// Validate has already rejected unknown values
	boundary, _ := model.ParseBoundary(c.Boundary)
	return []model.Option{model.WithBoundary(boundary)}
}
