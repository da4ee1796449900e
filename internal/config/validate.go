package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGate(); err != nil {
		return err
	}
	if err := c.validateSimulation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGate() error {
	if c.Gate.MaxTruePeakDBTP > 0 {
		return errors.New("gate.max_true_peak_dbtp must be at or below 0 dBTP")
	}
	if c.Gate.MaxIntegratedLUFS > 0 {
		return errors.New("gate.max_integrated_lufs must be negative")
	}
	if c.Gate.MaxClippedSamples < 0 {
		return errors.New("gate.max_clipped_samples must not be negative")
	}
	if c.Gate.MinLoudnessRangeLU < 0 {
		return errors.New("gate.min_loudness_range_lu must not be negative")
	}
	if c.Gate.MinCrestFactorDB < 0 {
		return errors.New("gate.min_crest_factor_db must not be negative")
	}
	if c.Gate.StaleProcessingSecs <= 0 {
		return errors.New("gate.stale_processing_seconds must be positive")
	}
	if c.Gate.MinSilenceSeconds <= 0 {
		return errors.New("gate.min_silence_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSimulation() error {
	if c.Simulation.AACBitrateKbps <= 0 || c.Simulation.MP3BitrateKbps <= 0 {
		return errors.New("simulation bitrates must be positive")
	}
	if c.Simulation.OversModerateThreshold < 0 {
		return errors.New("simulation.overs_moderate_threshold must not be negative")
	}
	if c.Simulation.OversHighThreshold <= c.Simulation.OversModerateThreshold {
		return errors.New("simulation.overs_high_threshold must exceed the moderate threshold")
	}
	if c.Simulation.HeadroomModerateDB < 0 {
		return errors.New("simulation.headroom_moderate_db must not be negative")
	}
	if c.Simulation.HeadroomHighDB <= c.Simulation.HeadroomModerateDB {
		return errors.New("simulation.headroom_high_db must exceed the moderate threshold")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
