package srs

import (
	"fmt"
	"time"
)

// DefaultWeights are the FSRS-6 default model weights.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability per grade
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] short-term stability
	0.1542, // w[20] decay
}

// Params defines all configurable policy constants for the scheduler.
type Params struct {
	// Daily admission
	MaxNewPerDay int

	// Requeue timing
	RelearningDelay time.Duration
	MinimumInterval time.Duration

	// Difficulty bounds and the difficulty assigned to unseen cards
	MinDifficulty      float64
	MaxDifficulty      float64
	BaselineDifficulty float64

	// Memory model
	DesiredRetention    float64
	MaximumIntervalDays float64
	Weights             [21]float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	MaxNewPerDay        int
	RelearningDelay     time.Duration
	MinimumInterval     time.Duration
	MinDifficulty       float64
	MaxDifficulty       float64
	BaselineDifficulty  float64
	DesiredRetention    float64
	MaximumIntervalDays float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MaxNewPerDay:        20,
		RelearningDelay:     5 * time.Minute,
		MinimumInterval:     24 * time.Hour,
		MinDifficulty:       1,
		MaxDifficulty:       10,
		BaselineDifficulty:  5,
		DesiredRetention:    0.9,
		MaximumIntervalDays: 36500,
		Weights:             DefaultWeights,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MaxNewPerDay > 0 {
		params.MaxNewPerDay = config.MaxNewPerDay
	}
	if config.RelearningDelay > 0 {
		params.RelearningDelay = config.RelearningDelay
	}
	if config.MinimumInterval > 0 {
		params.MinimumInterval = config.MinimumInterval
	}
	if config.MinDifficulty > 0 {
		params.MinDifficulty = config.MinDifficulty
	}
	if config.MaxDifficulty > 0 {
		params.MaxDifficulty = config.MaxDifficulty
	}
	if config.BaselineDifficulty > 0 {
		params.BaselineDifficulty = config.BaselineDifficulty
	}
	if config.DesiredRetention > 0 {
		params.DesiredRetention = config.DesiredRetention
	}
	if config.MaximumIntervalDays > 0 {
		params.MaximumIntervalDays = config.MaximumIntervalDays
	}

	return params
}

// Validate checks that the parameters describe a usable policy.
func (p *Params) Validate() error {
	switch {
	case p.MaxNewPerDay < 0:
		return fmt.Errorf("%w: max new per day must be >= 0", ErrInvalidParams)
	case p.RelearningDelay <= 0:
		return fmt.Errorf("%w: relearning delay must be positive", ErrInvalidParams)
	case p.MinimumInterval <= 0:
		return fmt.Errorf("%w: minimum interval must be positive", ErrInvalidParams)
	case p.MinDifficulty < 1 || p.MaxDifficulty > 10 || p.MinDifficulty >= p.MaxDifficulty:
		return fmt.Errorf("%w: difficulty bounds must satisfy 1 <= min < max <= 10", ErrInvalidParams)
	case p.BaselineDifficulty < p.MinDifficulty || p.BaselineDifficulty > p.MaxDifficulty:
		return fmt.Errorf("%w: baseline difficulty outside bounds", ErrInvalidParams)
	case p.DesiredRetention <= 0 || p.DesiredRetention >= 1:
		return fmt.Errorf("%w: desired retention must be in (0,1)", ErrInvalidParams)
	case p.MaximumIntervalDays < 1:
		return fmt.Errorf("%w: maximum interval must be at least one day", ErrInvalidParams)
	case p.Weights[20] <= 0:
		return fmt.Errorf("%w: decay weight must be positive", ErrInvalidParams)
	}
	return nil
}
