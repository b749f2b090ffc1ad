package geocode

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/foodlytics/oppscore/internal/models"
)

// Stats counts resolver outcomes for one run.
type Stats struct {
	CacheHits int
	Resolved  int
	Empty     int
	Failures  int
}

// Resolver annotates rows with postcodes, consulting the cache before the
// provider. Provider failures never abort the pipeline; the row keeps an
// empty postcode and forward-fill picks it up later.
type Resolver struct {
	provider Provider
	cache    Cache
}

// NewResolver creates a resolver over the given provider and cache.
func NewResolver(provider Provider, cache Cache) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    cache,
	}
}

// Annotate sets Postcode on each row in place and returns outcome counts.
// Rows are processed sequentially in input order; order matters to the
// forward-fill stage downstream.
func (r *Resolver) Annotate(ctx context.Context, rows []models.Exploded) Stats {
	var stats Stats

	for i := range rows {
		key := CacheKey(rows[i].Latitude, rows[i].Longitude)

		if postcode, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			rows[i].Postcode = postcode
			stats.CacheHits++
			continue
		} else if err != nil {
			// A broken cache degrades to direct lookups.
			log.Warn().Err(err).Msg("postcode cache lookup failed")
		}

		postcode, err := r.provider.Reverse(ctx, rows[i].Latitude, rows[i].Longitude)
		if err != nil {
			stats.Failures++
			log.Debug().Err(err).
				Float64("lat", rows[i].Latitude).
				Float64("lon", rows[i].Longitude).
				Msg("reverse geocode failed")
			continue
		}

		rows[i].Postcode = postcode
		if postcode == "" {
			stats.Empty++
		} else {
			stats.Resolved++
		}

		if err := r.cache.Set(ctx, key, postcode); err != nil {
			log.Warn().Err(err).Msg("postcode cache store failed")
		}
	}

	return stats
}

// ForwardFill backfills empty postcodes with the last known non-empty value
// within the same (city, locality) group, in row order. This assumes a
// locality is geographically homogeneous; rows before the first resolved
// postcode of their group stay empty. Returns the number of rows filled.
func ForwardFill(rows []models.Exploded) int {
	type groupKey struct {
		city     string
		locality string
	}

	lastSeen := make(map[groupKey]string)
	filled := 0

	for i := range rows {
		key := groupKey{city: rows[i].City, locality: rows[i].Locality}

		if rows[i].Postcode != "" {
			lastSeen[key] = rows[i].Postcode
			continue
		}

		if postcode, ok := lastSeen[key]; ok {
			rows[i].Postcode = postcode
			filled++
		}
	}

	return filled
}
