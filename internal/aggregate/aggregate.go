package aggregate

import (
	"sort"

	"github.com/foodlytics/oppscore/internal/models"
)

// group accumulates the reduction for one (postcode, locality, city,
// cuisine) key.
type group struct {
	votesSum      int64
	ratingSum     float64
	costSum       float64
	count         int
	deliveryCount int
}

// Reduce groups rows by (postcode, locality, city, cuisine) and reduces each
// group to summed votes, mean rating, mean cost, restaurant count, and the
// fraction of delivery-enabled restaurants. The reduction is commutative
// over input order; output is sorted by key so exports are stable run to
// run.
func Reduce(rows []models.Exploded) []models.Aggregate {
	groups := make(map[models.AggregateKey]*group)

	for _, row := range rows {
		key := models.AggregateKey{
			Postcode: row.Postcode,
			Locality: row.Locality,
			City:     row.City,
			Cuisine:  row.Cuisine,
		}

		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}

		g.votesSum += row.Votes
		g.ratingSum += row.AggregateRating
		g.costSum += row.AvgCostForTwo
		g.count++
		if row.HasOnlineDelivery {
			g.deliveryCount++
		}
	}

	aggregates := make([]models.Aggregate, 0, len(groups))
	for key, g := range groups {
		aggregates = append(aggregates, models.Aggregate{
			Key:             key,
			VotesSum:        g.votesSum,
			RatingMean:      g.ratingSum / float64(g.count),
			CostMean:        g.costSum / float64(g.count),
			RestaurantCount: g.count,
			DeliveryRatio:   float64(g.deliveryCount) / float64(g.count),
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		a, b := aggregates[i].Key, aggregates[j].Key
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Locality != b.Locality {
			return a.Locality < b.Locality
		}
		if a.Postcode != b.Postcode {
			return a.Postcode < b.Postcode
		}
		return a.Cuisine < b.Cuisine
	})

	return aggregates
}
