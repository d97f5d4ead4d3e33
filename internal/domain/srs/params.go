package srs

import (
	"fmt"
	"time"
)

// WeightCount is the number of trainable weights in the FSRS v6 model.
const WeightCount = 21

// DefaultWeights are the published FSRS v6 default weights.
var DefaultWeights = [WeightCount]float64{
	0.212, 1.2931, 2.3065, 8.2956, // initial stability per grade
	6.4133, 0.8334, 3.0194, 0.001, // difficulty
	1.8722, 0.1666, 0.796, 1.4835, // recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // forget stability, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // easy bonus, short-term
	0.1542, // decay
}

// Weight bounds accepted by NewParams.
var (
	lowerBounds = [WeightCount]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001, 0.001,
		0.001, 0.001, 0.0, 0.0,
		1.0, 0.0, 0.0, 0.0,
		0.1,
	}
	upperBounds = [WeightCount]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// Params defines all configurable parameters for the memory model
type Params struct {
	Weights          [WeightCount]float64
	DesiredRetention float64
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
	MaximumInterval  int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults. A nil step slice keeps the default steps;
// an empty non-nil LearningSteps disables learning steps.
type ParamsConfig struct {
	Weights          []float64
	DesiredRetention float64
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
	MaximumInterval  int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		Weights:          DefaultWeights,
		DesiredRetention: 0.9,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
		MaximumInterval:  36500,
	}
}

// NewParams creates a new Params instance with custom configuration.
// It returns ErrInvalidParams if any override is out of range.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if len(config.Weights) > 0 {
		if len(config.Weights) != WeightCount {
			return nil, fmt.Errorf("%w: expected %d weights, got %d",
				ErrInvalidParams, WeightCount, len(config.Weights))
		}
		copy(params.Weights[:], config.Weights)
	}
	for i, w := range params.Weights {
		if w < lowerBounds[i] || w > upperBounds[i] {
			return nil, fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParams, i, w, lowerBounds[i], upperBounds[i])
		}
	}

	if config.DesiredRetention != 0 {
		if config.DesiredRetention <= 0 || config.DesiredRetention >= 1 {
			return nil, fmt.Errorf("%w: desired retention %f out of range (0, 1)",
				ErrInvalidParams, config.DesiredRetention)
		}
		params.DesiredRetention = config.DesiredRetention
	}

	if config.MaximumInterval != 0 {
		if config.MaximumInterval < 1 {
			return nil, fmt.Errorf("%w: maximum interval %d must be positive",
				ErrInvalidParams, config.MaximumInterval)
		}
		params.MaximumInterval = config.MaximumInterval
	}

	if config.LearningSteps != nil {
		if err := validateSteps("learning", config.LearningSteps); err != nil {
			return nil, err
		}
		params.LearningSteps = config.LearningSteps
	}

	if config.RelearningSteps != nil {
		// A lapse must always land in RELEARNING.
		if len(config.RelearningSteps) == 0 {
			return nil, fmt.Errorf("%w: at least one relearning step is required", ErrInvalidParams)
		}
		if err := validateSteps("relearning", config.RelearningSteps); err != nil {
			return nil, err
		}
		params.RelearningSteps = config.RelearningSteps
	}

	return params, nil
}

func validateSteps(kind string, steps []time.Duration) error {
	for i, s := range steps {
		if s <= 0 {
			return fmt.Errorf("%w: %s step %d must be positive", ErrInvalidParams, kind, i)
		}
	}
	return nil
}
