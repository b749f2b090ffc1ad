package dataset

import "github.com/foodlytics/oppscore/internal/models"

// FilterDemand computes demand = rating × votes for each row and drops rows
// with zero demand. Zero demand means no engagement at all; those listings
// are noise for opportunity ranking, not a data-quality signal worth
// reporting.
func FilterDemand(rows []models.Exploded) []models.Exploded {
	kept := make([]models.Exploded, 0, len(rows))

	for _, row := range rows {
		demand := row.AggregateRating * float64(row.Votes)
		if demand == 0 {
			continue
		}

		row.DemandScore = demand
		kept = append(kept, row)
	}

	return kept
}
