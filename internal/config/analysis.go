package config

import (
	"fmt"
	"os"
	"strconv"

	"surveystats/internal/analytics"
	"surveystats/internal/model"
)

// AnalysisConfig holds the tunables of report runs
type AnalysisConfig struct {
	Options analytics.Options `json:"options"`

	// Extended adds mode, min and max columns to question tables
	Extended bool `json:"extended"`
}

// DefaultAnalysisConfig reads CONFIDENCE_LEVEL, AGREEMENT_THRESHOLD and
// EXTENDED_STATS. An unset threshold is the midpoint of scale rounded up.
func DefaultAnalysisConfig(scale model.Scale) (*AnalysisConfig, error) {
	cfg := &AnalysisConfig{Options: analytics.Options{
		ConfidenceLevel:    analytics.DefaultConfidenceLevel,
		AgreementThreshold: analytics.DefaultThreshold(scale),
	}}

	if v := os.Getenv("CONFIDENCE_LEVEL"); v != "" {
		level, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("CONFIDENCE_LEVEL: %w", err)
		}
		cfg.Options.ConfidenceLevel = level
	}
	if v := os.Getenv("AGREEMENT_THRESHOLD"); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("AGREEMENT_THRESHOLD: %w", err)
		}
		cfg.Options.AgreementThreshold = threshold
	}
	if v := os.Getenv("EXTENDED_STATS"); v != "" {
		ext, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("EXTENDED_STATS: %w", err)
		}
		cfg.Extended = ext
	}

	if err := cfg.Options.ValidateFor(scale); err != nil {
		return nil, err
	}
	return cfg, nil
}
