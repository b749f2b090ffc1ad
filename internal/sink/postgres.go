package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/foodlytics/oppscore/internal/config"
	"github.com/foodlytics/oppscore/internal/models"
)

// upsertScore keeps one current row per locality/cuisine group; each run
// overwrites the previous refresh.
const upsertScore = `
INSERT INTO locality_cuisine_scores (
	postcode, locality, city, cuisine,
	votes, rating, cost_for_two, restaurant_count, delivery_ratio,
	demand_score, feasibility_score, saturation_index, saturation_inverse,
	success_score, run_id, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (postcode, locality, city, cuisine) DO UPDATE SET
	votes = EXCLUDED.votes,
	rating = EXCLUDED.rating,
	cost_for_two = EXCLUDED.cost_for_two,
	restaurant_count = EXCLUDED.restaurant_count,
	delivery_ratio = EXCLUDED.delivery_ratio,
	demand_score = EXCLUDED.demand_score,
	feasibility_score = EXCLUDED.feasibility_score,
	saturation_index = EXCLUDED.saturation_index,
	saturation_inverse = EXCLUDED.saturation_inverse,
	success_score = EXCLUDED.success_score,
	run_id = EXCLUDED.run_id,
	updated_at = EXCLUDED.updated_at`

// Postgres writes score records into the locality_cuisine_scores table.
// Opt-in: when the sink is enabled its failures abort the run, unlike the
// best-effort geocoder.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgres opens a connection pool from config and verifies connectivity.
func NewPostgres(cfg config.SinkConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sink DSN is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresFromDB(db, cfg.QueryTimeout.Std()), nil
}

// NewPostgresFromDB wraps an existing connection. Used by tests.
func NewPostgresFromDB(db *sqlx.DB, timeout time.Duration) *Postgres {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Postgres{db: db, timeout: timeout}
}

// Store upserts all records in a single transaction tagged with the run id.
func (p *Postgres) Store(ctx context.Context, runID string, records []models.ScoreRecord) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, r := range records {
		_, err := tx.ExecContext(ctx, upsertScore,
			r.Key.Postcode, r.Key.Locality, r.Key.City, r.Key.Cuisine,
			r.VotesSum, r.RatingMean, r.CostMean, r.RestaurantCount, r.DeliveryRatio,
			r.DemandScore, r.FeasibilityScore, r.SaturationIndex, r.SaturationInverse,
			r.SuccessScore, runID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert score for %+v: %w", r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
