package dataset

import "github.com/foodlytics/oppscore/internal/models"

// Explode emits one row per cuisine a restaurant lists, duplicating all
// other fields. Total output rows equal the sum of per-row cuisine counts.
// Restaurants with no cuisines contribute nothing.
func Explode(restaurants []models.Restaurant) []models.Exploded {
	var exploded []models.Exploded

	for _, r := range restaurants {
		for _, cuisine := range r.Cuisines {
			exploded = append(exploded, models.Exploded{
				ID:                r.ID,
				Name:              r.Name,
				City:              r.City,
				Locality:          r.Locality,
				Longitude:         r.Longitude,
				Latitude:          r.Latitude,
				Cuisine:           cuisine,
				AvgCostForTwo:     r.AvgCostForTwo,
				HasOnlineDelivery: r.HasOnlineDelivery,
				AggregateRating:   r.AggregateRating,
				Votes:             r.Votes,
			})
		}
	}

	return exploded
}
