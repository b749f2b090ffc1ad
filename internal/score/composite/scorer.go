package composite

import (
	"fmt"
	"math"

	"github.com/foodlytics/oppscore/internal/config"
	"github.com/foodlytics/oppscore/internal/models"
)

// Scorer derives the composite success score for locality/cuisine
// aggregates. Pure arithmetic: given the same aggregates and weights the
// output is identical.
type Scorer struct {
	weights config.Weights
}

// NewScorer creates a scorer after validating the weights.
func NewScorer(weights config.Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}

	return &Scorer{weights: weights}, nil
}

// Score computes per-group components, fits the min-max scalers over the
// full table, and composes the weighted success score. Record order follows
// the input order.
func (s *Scorer) Score(aggregates []models.Aggregate) ([]models.ScoreRecord, error) {
	if len(aggregates) == 0 {
		return nil, nil
	}

	cityMeanCount := cityMeanRestaurantCount(aggregates)

	records := make([]models.ScoreRecord, len(aggregates))
	var demand, feasibility, delivery, saturation MinMaxScaler

	for i, agg := range aggregates {
		r := models.ScoreRecord{Aggregate: agg}

		r.DemandScore = float64(agg.VotesSum) * agg.RatingMean
		r.FeasibilityScore = r.DemandScore / float64(agg.RestaurantCount+1)
		r.SaturationIndex = float64(agg.RestaurantCount) / cityMeanCount[agg.Key.City]

		demand.Observe(r.DemandScore)
		feasibility.Observe(r.FeasibilityScore)
		delivery.Observe(agg.DeliveryRatio)
		saturation.Observe(r.SaturationIndex)

		records[i] = r
	}

	for i := range records {
		r := &records[i]

		r.DemandNorm = demand.Norm(r.DemandScore)
		r.FeasibilityNorm = feasibility.Norm(r.FeasibilityScore)
		r.DeliveryRatioNorm = delivery.Norm(r.DeliveryRatio)
		r.SaturationInverse = 1 - saturation.Norm(r.SaturationIndex)

		r.SuccessScore = s.weights.Delivery*r.DeliveryRatioNorm +
			s.weights.Feasibility*r.FeasibilityNorm +
			s.weights.Demand*r.DemandNorm +
			s.weights.Saturation*r.SaturationInverse

		if err := validateRecord(r); err != nil {
			return nil, fmt.Errorf("group %+v: %w", r.Key, err)
		}
	}

	return records, nil
}

// cityMeanRestaurantCount returns, per city, the mean restaurant count
// across that city's locality/cuisine groups. This is the competitor density
// baseline for the saturation index.
func cityMeanRestaurantCount(aggregates []models.Aggregate) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, agg := range aggregates {
		sums[agg.Key.City] += float64(agg.RestaurantCount)
		counts[agg.Key.City]++
	}

	means := make(map[string]float64, len(sums))
	for city, sum := range sums {
		means[city] = sum / float64(counts[city])
	}

	return means
}

func validateRecord(r *models.ScoreRecord) error {
	values := []struct {
		name  string
		value float64
	}{
		{"demand_score", r.DemandScore},
		{"feasibility_score", r.FeasibilityScore},
		{"saturation_index", r.SaturationIndex},
		{"success_score", r.SuccessScore},
	}

	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("invalid value for %s: %f", v.name, v.value)
		}
	}

	if r.SuccessScore < 0 || r.SuccessScore > 1 {
		return fmt.Errorf("success score %f outside [0,1]", r.SuccessScore)
	}

	return nil
}
