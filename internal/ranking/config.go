package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Calibration holds the tunable constants of the ranking pipeline.
type Calibration struct {
	CoverageThreshold float64 `json:"coverage_threshold"`  // Minimum non-missing ratio to keep an attribute (default: 0.60)
	WinsorLower       float64 `json:"winsor_lower"`        // Lower clipping percentile (default: 0.01)
	WinsorUpper       float64 `json:"winsor_upper"`        // Upper clipping percentile (default: 0.99)
	DefaultTopN       int     `json:"default_top_n"`       // Results returned when the request leaves top_n unset (default: 10)
	MaxTopN           int     `json:"max_top_n"`           // Upper bound on top_n (default: 100)
	SATMidpointOffset float64 `json:"sat_midpoint_offset"` // Half-width of the band built around sat_avg (default: 100)
	ACTMidpointOffset float64 `json:"act_midpoint_offset"` // Half-width of the band built around act_composite_mid (default: 2)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version     string      `json:"version"`
	Calibration Calibration `json:"calibration"`
}

// Calibration validation errors.
var (
	ErrInvalidCoverage   = errors.New("coverage_threshold must be in (0, 1]")
	ErrInvalidWinsorBand = errors.New("winsor percentiles must satisfy 0 <= lower < upper <= 1")
	ErrInvalidTopN       = errors.New("default_top_n and max_top_n must be positive with default <= max")
	ErrInvalidBandOffset = errors.New("band midpoint offsets must be positive")
)

// DefaultCalibration returns the default pipeline constants.
func DefaultCalibration() *Calibration {
	return &Calibration{
		CoverageThreshold: 0.60,
		WinsorLower:       0.01,
		WinsorUpper:       0.99,
		DefaultTopN:       10,
		MaxTopN:           100,
		SATMidpointOffset: 100,
		ACTMidpointOffset: 2,
	}
}

// Validate checks the calibration for values the pipeline cannot use.
func (c *Calibration) Validate() error {
	var errs []error
	if !(c.CoverageThreshold > 0 && c.CoverageThreshold <= 1) {
		errs = append(errs, ErrInvalidCoverage)
	}
	if c.WinsorLower < 0 || c.WinsorUpper > 1 || c.WinsorLower >= c.WinsorUpper {
		errs = append(errs, ErrInvalidWinsorBand)
	}
	if c.DefaultTopN <= 0 || c.MaxTopN <= 0 || c.DefaultTopN > c.MaxTopN {
		errs = append(errs, ErrInvalidTopN)
	}
	if c.SATMidpointOffset <= 0 || c.ACTMidpointOffset <= 0 {
		errs = append(errs, ErrInvalidBandOffset)
	}
	return errors.Join(errs...)
}

// LoadCalibration loads pipeline constants from a JSON calibration file.
// An empty path yields the defaults. On any read, parse or validation error
// the defaults are returned together with the error.
// Partial configurations are merged with defaults.
func LoadCalibration(filePath string) (*Calibration, error) {
	if filePath == "" {
		return DefaultCalibration(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultCalibration()
	merged := MergeCalibration(defaults, &config.Calibration)
	if err := merged.Validate(); err != nil {
		slog.Warn("invalid calibration file, using defaults",
			"path", filePath,
			"error", err)
		return defaults, fmt.Errorf("invalid calibration file: %w", err)
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override values onto base. Only non-zero override
// fields are applied, so a file may set a subset of the constants.
func MergeCalibration(base *Calibration, override *Calibration) *Calibration {
	if base == nil {
		return DefaultCalibration()
	}

	result := *base
	if override == nil {
		return &result
	}

	if override.CoverageThreshold != 0 {
		result.CoverageThreshold = override.CoverageThreshold
	}
	if override.WinsorLower != 0 {
		result.WinsorLower = override.WinsorLower
	}
	if override.WinsorUpper != 0 {
		result.WinsorUpper = override.WinsorUpper
	}
	if override.DefaultTopN != 0 {
		result.DefaultTopN = override.DefaultTopN
	}
	if override.MaxTopN != 0 {
		result.MaxTopN = override.MaxTopN
	}
	if override.SATMidpointOffset != 0 {
		result.SATMidpointOffset = override.SATMidpointOffset
	}
	if override.ACTMidpointOffset != 0 {
		result.ACTMidpointOffset = override.ACTMidpointOffset
	}

	return &result
}

// logCalibrationOverrides logs which constants differ from the defaults.
func logCalibrationOverrides(defaults *Calibration, loaded *Calibration) {
	var overrides []string

	addFloat := func(name string, from, to float64) {
		if from != to {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, from, to))
		}
	}
	addInt := func(name string, from, to int) {
		if from != to {
			overrides = append(overrides, fmt.Sprintf("%s: %d -> %d", name, from, to))
		}
	}

	addFloat("coverage_threshold", defaults.CoverageThreshold, loaded.CoverageThreshold)
	addFloat("winsor_lower", defaults.WinsorLower, loaded.WinsorLower)
	addFloat("winsor_upper", defaults.WinsorUpper, loaded.WinsorUpper)
	addInt("default_top_n", defaults.DefaultTopN, loaded.DefaultTopN)
	addInt("max_top_n", defaults.MaxTopN, loaded.MaxTopN)
	addFloat("sat_midpoint_offset", defaults.SATMidpointOffset, loaded.SATMidpointOffset)
	addFloat("act_midpoint_offset", defaults.ACTMidpointOffset, loaded.ACTMidpointOffset)

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
