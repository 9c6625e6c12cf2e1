package coverage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Band classifies a coverage percentage against a watermark pair.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

// Watermarks holds the [low, high) percentage thresholds used when
// rendering the coverage report. They are presentation-only; nothing here
// enforces them as a pass/fail gate.
type Watermarks struct {
	Statements [2]float64 `yaml:"statements"`
	Branches   [2]float64 `yaml:"branches"`
	Functions  [2]float64 `yaml:"functions"`
}

// DefaultWatermarks returns the conventional 50/80 thresholds.
func DefaultWatermarks() Watermarks {
	return Watermarks{
		Statements: [2]float64{50, 80},
		Branches:   [2]float64{50, 80},
		Functions:  [2]float64{50, 80},
	}
}

// LoadWatermarks reads a watermark configuration file. Unset metrics keep
// their defaults.
func LoadWatermarks(path string) (Watermarks, error) {
	wm := DefaultWatermarks()

	data, err := os.ReadFile(path)
	if err != nil {
		return wm, fmt.Errorf("failed to read watermarks file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &wm); err != nil {
		return wm, fmt.Errorf("failed to parse watermarks file %s: %w", path, err)
	}
	return wm, nil
}

func classify(pct float64, marks [2]float64) Band {
	switch {
	case pct < marks[0]:
		return BandLow
	case pct < marks[1]:
		return BandMedium
	default:
		return BandHigh
	}
}
