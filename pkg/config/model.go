package config

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownModelVersion = errors.New("unknown model version")

// ModelConfig holds every tunable of one model version. Calculations tagged
// with a version are always reproduced with that version's knobs.
type ModelConfig struct {
	Version string `yaml:"version" validate:"required"`

	// Elo
	InitialRating    float64 `yaml:"initial_rating" default:"1500" validate:"gt=0"`
	KFactor          float64 `yaml:"k_factor" default:"32" validate:"gt=0"`
	MarginMultiplier float64 `yaml:"margin_multiplier" default:"0.5" validate:"gte=0"`
	HomeKFactor      float64 `yaml:"home_k_factor" default:"0.9" validate:"gt=0"`
	AwayKFactor      float64 `yaml:"away_k_factor" default:"1.1" validate:"gt=0"`

	// Attack / defense
	RatingSmoothing float64 `yaml:"rating_smoothing" default:"0.95" validate:"gt=0,lt=1"`
	RatingFloor     float64 `yaml:"rating_floor" default:"0.5" validate:"gt=0"`
	RatingCeiling   float64 `yaml:"rating_ceiling" default:"2.0" validate:"gtfield=RatingFloor"`
	MinOpponentXG   float64 `yaml:"min_opponent_xg" default:"0.1" validate:"gt=0"`
	LeagueAvgGoals  float64 `yaml:"league_avg_goals" default:"1.35" validate:"gt=0"`

	// Scoreline
	HomeAdvantage float64 `yaml:"home_advantage" default:"1.25" validate:"gt=0"`
	Rho           float64 `yaml:"rho" default:"-0.1" validate:"gte=-1,lte=1"`
	MaxGoals      int     `yaml:"max_goals" default:"10" validate:"gte=1,lte=20"`
	MinLambda     float64 `yaml:"min_lambda" default:"0.05" validate:"gt=0"`

	// Form
	FormAlpha           float64 `yaml:"form_alpha" default:"0.3" validate:"gt=0,lte=1"`
	FormLookback        int     `yaml:"form_lookback" default:"10" validate:"gte=1"`
	FormMinMatches      int     `yaml:"form_min_matches" default:"3" validate:"gte=1"`
	XGTrendWindow       int     `yaml:"xg_trend_window" default:"5" validate:"gte=1"`
	RegressionThreshold float64 `yaml:"regression_threshold" default:"0.2" validate:"gt=0"`

	// Value
	EdgeThreshold float64 `yaml:"edge_threshold" default:"0.03" validate:"gte=0"`
	KellyFraction float64 `yaml:"kelly_fraction" default:"0.25" validate:"gt=0,lte=1"`

	// Context
	RestDaysCap       int     `yaml:"rest_days_cap" default:"90" validate:"gte=1"`
	DefaultImportance float64 `yaml:"default_importance" default:"0.5" validate:"gte=0,lte=1"`
}

// ModelRegistry resolves a model version to its configuration.
type ModelRegistry struct {
	defaultVersion string
	models         map[string]ModelConfig
}

// NewModelRegistry indexes the configured model versions. The default
// version must be one of them.
func NewModelRegistry(cfg EngineConfig) (*ModelRegistry, error) {
	r := &ModelRegistry{
		defaultVersion: cfg.DefaultVersion,
		models:         make(map[string]ModelConfig, len(cfg.Models)),
	}
	for _, m := range cfg.Models {
		if _, dup := r.models[m.Version]; dup {
			return nil, fmt.Errorf("duplicate model version %q", m.Version)
		}
		r.models[m.Version] = m
	}
	if _, ok := r.models[cfg.DefaultVersion]; !ok {
		return nil, fmt.Errorf("default version %q: %w", cfg.DefaultVersion, ErrUnknownModelVersion)
	}
	return r, nil
}

// Resolve returns the config for version; empty means the default version.
func (r *ModelRegistry) Resolve(version string) (ModelConfig, error) {
	if version == "" {
		version = r.defaultVersion
	}
	m, ok := r.models[version]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%q: %w", version, ErrUnknownModelVersion)
	}
	return m, nil
}

func (r *ModelRegistry) DefaultVersion() string { return r.defaultVersion }

// Versions lists the known versions in lexical order.
func (r *ModelRegistry) Versions() []string {
	out := make([]string, 0, len(r.models))
	for v := range r.models {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DefaultModelConfig returns a config with every knob at its default value.
func DefaultModelConfig(version string) ModelConfig {
	return ModelConfig{
		Version:             version,
		InitialRating:       1500,
		KFactor:             32,
		MarginMultiplier:    0.5,
		HomeKFactor:         0.9,
		AwayKFactor:         1.1,
		RatingSmoothing:     0.95,
		RatingFloor:         0.5,
		RatingCeiling:       2.0,
		MinOpponentXG:       0.1,
		LeagueAvgGoals:      1.35,
		HomeAdvantage:       1.25,
		Rho:                 -0.1,
		MaxGoals:            10,
		MinLambda:           0.05,
		FormAlpha:           0.3,
		FormLookback:        10,
		FormMinMatches:      3,
		XGTrendWindow:       5,
		RegressionThreshold: 0.2,
		EdgeThreshold:       0.03,
		KellyFraction:       0.25,
		RestDaysCap:         90,
		DefaultImportance:   0.5,
	}
}
