package pipeline

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-ranker/internal/matching"
	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/ranking"
	"github.com/spigell/cv-ranker/internal/retry"
	"github.com/spigell/cv-ranker/internal/scoring"
)

const (
	DefaultWorkers         = 8
	DefaultMinSuccessRatio = 0.5
	DefaultTaskTimeout     = 60 * time.Second
	DefaultAnalysisTimeout = 60 * time.Second
	DefaultStoreTimeout    = 10 * time.Second
)

// BreakerConfig tunes the per-adapter circuit breakers.
type BreakerConfig struct {
	// MinRequests is the number of calls in the window before the breaker may trip.
	MinRequests  uint32        `mapstructure:"min-requests"`
	FailureRatio float64       `mapstructure:"failure-ratio" validate:"gte=0,lte=1"`
	Window       time.Duration `mapstructure:"window" validate:"gte=0"`
	Cooldown     time.Duration `mapstructure:"cooldown" validate:"gte=0"`
	// HalfOpenRequests is the number of trial calls admitted while half-open.
	HalfOpenRequests uint32 `mapstructure:"half-open-requests"`
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MinRequests:      20,
		FailureRatio:     0.5,
		Window:           time.Minute,
		Cooldown:         30 * time.Second,
		HalfOpenRequests: 1,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	def := DefaultBreakerConfig()
	if c.MinRequests == 0 {
		c.MinRequests = def.MinRequests
	}
	if c.FailureRatio == 0 {
		c.FailureRatio = def.FailureRatio
	}
	if c.Window == 0 {
		c.Window = def.Window
	}
	if c.Cooldown == 0 {
		c.Cooldown = def.Cooldown
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = def.HalfOpenRequests
	}
	return c
}

// Config is the Orchestrator configuration.
type Config struct {
	// Workers caps in-flight candidate tasks per job.
	Workers int `mapstructure:"workers" validate:"gte=0,lte=256"`
	// MinSuccessRatio is the share of candidates that must yield a usable profile.
	MinSuccessRatio float64       `mapstructure:"min-success-ratio" validate:"gte=0,lte=1"`
	TaskTimeout     time.Duration `mapstructure:"task-timeout" validate:"gte=0"`
	AnalysisTimeout time.Duration `mapstructure:"analysis-timeout" validate:"gte=0"`
	StoreTimeout    time.Duration `mapstructure:"store-timeout" validate:"gte=0"`

	Retry   retry.Policy         `mapstructure:"retry"`
	Breaker BreakerConfig        `mapstructure:"breaker"`
	Weights model.ScoringWeights `mapstructure:"weights"`

	Matching matching.Config `mapstructure:"matching"`
	Scoring  scoring.Config  `mapstructure:"scoring"`
	Ranking  ranking.Config  `mapstructure:"ranking"`
}

func DefaultConfig() Config {
	return Config{
		Workers:         DefaultWorkers,
		MinSuccessRatio: DefaultMinSuccessRatio,
		TaskTimeout:     DefaultTaskTimeout,
		AnalysisTimeout: DefaultAnalysisTimeout,
		StoreTimeout:    DefaultStoreTimeout,
		Retry:           retry.DefaultPolicy(),
		Breaker:         DefaultBreakerConfig(),
		Weights:         model.DefaultWeights(),
		Ranking:         ranking.Config{Tiers: ranking.DefaultTiers()},
	}
}

// withDefaults fills zero values that have no meaning of their own.
// MinSuccessRatio is kept as is: zero disables the minimum.
func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = DefaultTaskTimeout
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.Weights.IsZero() {
		c.Weights = model.DefaultWeights()
	}
	c.Breaker = c.Breaker.withDefaults()
	return c
}

// Validate reports the first invalid setting as a *scoring.ConfigurationError.
func (c Config) Validate() error {
	if err := scoring.Validate(c); err != nil {
		return err
	}
	if err := c.Ranking.Validate(); err != nil {
		return err
	}
	if !c.Weights.IsZero() {
		if _, _, err := scoring.NormalizeWeights(c.Weights, c.Scoring.Tolerance); err != nil {
			return err
		}
	}
	return nil
}

// Overrides are per-job settings supplied with a submission.
type Overrides struct {
	Weights             *model.ScoringWeights `mapstructure:"weights"`
	Tiers               *ranking.Tiers        `mapstructure:"tiers"`
	CriticalSkillWeight *float64              `mapstructure:"critical-skill-weight"`
	MinTotalScore       *float64              `mapstructure:"min-total-score"`
	MinSuccessRatio     *float64              `mapstructure:"min-success-ratio"`
}

// jobSettings is the validated configuration value a job runs with.
type jobSettings struct {
	weights         *model.ScoringWeights
	ranking         ranking.Config
	minSuccessRatio float64
}

// resolveSettings decodes raw overrides on top of the orchestrator configuration.
func resolveSettings(cfg Config, raw map[string]any) (jobSettings, error) {
	settings := jobSettings{
		ranking:         cfg.Ranking,
		minSuccessRatio: cfg.MinSuccessRatio,
	}
	if len(raw) == 0 {
		return settings, nil
	}

	var ov Overrides
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &ov,
	})
	if err != nil {
		return settings, err
	}
	if err := decoder.Decode(raw); err != nil {
		return settings, &scoring.ConfigurationError{Field: "overrides", Reason: err.Error()}
	}

	if ov.Weights != nil {
		if err := scoring.Validate(*ov.Weights); err != nil {
			return settings, err
		}
		if _, _, err := scoring.NormalizeWeights(*ov.Weights, cfg.Scoring.Tolerance); err != nil {
			return settings, err
		}
		settings.weights = ov.Weights
	}
	if ov.Tiers != nil {
		settings.ranking.Tiers = *ov.Tiers
	}
	if ov.CriticalSkillWeight != nil {
		settings.ranking.CriticalSkillWeight = *ov.CriticalSkillWeight
	}
	if ov.MinTotalScore != nil {
		settings.ranking.MinTotalScore = *ov.MinTotalScore
	}
	if err := settings.ranking.Validate(); err != nil {
		return settings, err
	}
	if ov.MinSuccessRatio != nil {
		ratio := *ov.MinSuccessRatio
		if ratio < 0 || ratio > 1 {
			return settings, &scoring.ConfigurationError{
				Field:  "min-success-ratio",
				Reason: fmt.Sprintf("value %v must be within [0,1]", ratio),
			}
		}
		settings.minSuccessRatio = ratio
	}

	return settings, nil
}
