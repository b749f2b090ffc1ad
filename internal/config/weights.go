package config

import (
	"fmt"
	"math"
)

// weightSumTolerance allows for floating point drift when checking that the
// composite weights sum to 1.0.
const weightSumTolerance = 0.01

// Weights defines how much each normalized component contributes to the
// composite success score.
type Weights struct {
	Delivery    float64 `yaml:"delivery"`
	Feasibility float64 `yaml:"feasibility"`
	Demand      float64 `yaml:"demand"`
	Saturation  float64 `yaml:"saturation"`
}

// DefaultWeights returns the canonical weight allocation.
func DefaultWeights() Weights {
	return Weights{
		Delivery:    0.30,
		Feasibility: 0.30,
		Demand:      0.30,
		Saturation:  0.10,
	}
}

// Validate ensures each weight is non-negative and the set sums to 1.0
// within tolerance. A composite built from [0,1] components under valid
// weights stays within [0,1].
func (w Weights) Validate() error {
	values := map[string]float64{
		"delivery":    w.Delivery,
		"feasibility": w.Feasibility,
		"demand":      w.Demand,
		"saturation":  w.Saturation,
	}

	for name, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("invalid weight for %s: %f", name, value)
		}

		if value < 0 {
			return fmt.Errorf("negative weight for %s: %f", name, value)
		}

		if value > 1 {
			return fmt.Errorf("weight for %s exceeds 1.0: %f", name, value)
		}
	}

	sum := w.Delivery + w.Feasibility + w.Demand + w.Saturation
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights sum to %.4f, expected 1.0 ± %.2f", sum, weightSumTolerance)
	}

	return nil
}
