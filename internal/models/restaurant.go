package models

// Restaurant is one parsed row of the raw listings dataset. Input records are
// immutable once loaded; every downstream stage works on copies or derived
// types.
type Restaurant struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	CountryCode       int      `json:"country_code"`
	City              string   `json:"city"`
	Locality          string   `json:"locality"`
	Longitude         float64  `json:"longitude"`
	Latitude          float64  `json:"latitude"`
	Cuisines          []string `json:"cuisines"`
	AvgCostForTwo     float64  `json:"avg_cost_for_two"`
	HasOnlineDelivery bool     `json:"has_online_delivery"`
	AggregateRating   float64  `json:"aggregate_rating"`
	Votes             int64    `json:"votes"`
}

// Exploded is a Restaurant narrowed to a single cuisine. One input row yields
// one Exploded row per cuisine it lists. DemandScore is rating × votes and is
// filled in by the demand filter stage; Postcode by the geocode stage.
type Exploded struct {
	ID                int64
	Name              string
	City              string
	Locality          string
	Longitude         float64
	Latitude          float64
	Cuisine           string
	AvgCostForTwo     float64
	HasOnlineDelivery bool
	AggregateRating   float64
	Votes             int64
	DemandScore       float64
	Postcode          string
}

// AggregateKey identifies one locality/cuisine group.
type AggregateKey struct {
	Postcode string
	Locality string
	City     string
	Cuisine  string
}

// Aggregate is the group-by reduction over (postcode, locality, city,
// cuisine). Recomputed each run; never persisted beyond the export files.
type Aggregate struct {
	Key             AggregateKey
	VotesSum        int64
	RatingMean      float64
	CostMean        float64
	RestaurantCount int
	DeliveryRatio   float64
}

// ScoreRecord is an Aggregate with its derived score components. SuccessScore
// is the weighted composite used for ranking; it lies in [0,1] when the
// normalized components do.
type ScoreRecord struct {
	Aggregate

	DemandScore       float64
	FeasibilityScore  float64
	SaturationIndex   float64
	SaturationInverse float64

	DeliveryRatioNorm float64
	FeasibilityNorm   float64
	DemandNorm        float64

	SuccessScore float64
}
