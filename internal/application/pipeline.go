package application

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/foodlytics/oppscore/internal/aggregate"
	"github.com/foodlytics/oppscore/internal/artifacts"
	"github.com/foodlytics/oppscore/internal/config"
	"github.com/foodlytics/oppscore/internal/dataset"
	"github.com/foodlytics/oppscore/internal/geocode"
	"github.com/foodlytics/oppscore/internal/models"
	"github.com/foodlytics/oppscore/internal/score/composite"
	"github.com/foodlytics/oppscore/internal/sink"
	"github.com/foodlytics/oppscore/internal/telemetry"
)

// Export file names inside the output directory. The dashboard loads the
// CSVs by these names.
const (
	ScoresFile  = "locality_cuisine_scores.csv"
	SummaryFile = "top_opportunities.csv"
	MetricsFile = "metrics.prom"
)

// Store receives the scored table when the optional sink is enabled.
type Store interface {
	Store(ctx context.Context, runID string, records []models.ScoreRecord) error
}

// Pipeline runs the full batch: filter, explode, demand filter, geocode,
// aggregate, score, export. One in-memory table threaded through sequential
// stages; no stage runs concurrently with another.
type Pipeline struct {
	cfg      *config.Config
	loader   *dataset.Loader
	resolver *geocode.Resolver
	scorer   *composite.Scorer
	writer   *artifacts.Writer
	metrics  *telemetry.Metrics
	store    Store
}

// New wires a pipeline from config: Nominatim provider behind the configured
// cache backend, and the Postgres sink when enabled.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	var cache geocode.Cache
	switch cfg.Geocoder.Cache {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Geocoder.RedisAddr})
		cache = geocode.NewRedisCache(client)
	default:
		cache = geocode.NewMemoryCache()
	}

	var store Store
	if cfg.Sink.Enabled {
		pg, err := sink.NewPostgres(cfg.Sink)
		if err != nil {
			return nil, fmt.Errorf("failed to connect sink: %w", err)
		}
		store = pg
	}

	return NewWithComponents(cfg, geocode.NewNominatim(cfg.Geocoder), cache, store)
}

// NewWithComponents wires a pipeline with explicit collaborators. Tests use
// this to substitute the geocoder, cache, and sink.
func NewWithComponents(cfg *config.Config, provider geocode.Provider, cache geocode.Cache, store Store) (*Pipeline, error) {
	scorer, err := composite.NewScorer(cfg.Weights)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		loader:   dataset.NewLoader(cfg.Input.CountryCode, cfg.Input.DropColumn),
		resolver: geocode.NewResolver(provider, cache),
		scorer:   scorer,
		writer:   artifacts.NewWriter(),
		metrics:  telemetry.NewMetrics(),
		store:    store,
	}, nil
}

// Run executes one batch and returns its manifest.
func (p *Pipeline) Run(ctx context.Context) (*artifacts.Manifest, error) {
	manifest := artifacts.NewManifest(p.cfg.Input.Path)

	restaurants, err := p.loader.LoadFile(p.cfg.Input.Path)
	if err != nil {
		return nil, fmt.Errorf("load stage: %w", err)
	}
	manifest.RowCounts.Loaded = len(restaurants)
	p.metrics.RowsLoaded.Add(float64(len(restaurants)))
	log.Info().Int("rows", len(restaurants)).Int("country_code", p.cfg.Input.CountryCode).Msg("loaded listings")

	exploded := dataset.Explode(restaurants)
	manifest.RowCounts.Exploded = len(exploded)
	p.metrics.RowsExploded.Add(float64(len(exploded)))
	log.Info().Int("rows", len(exploded)).Msg("expanded cuisines")

	exploded = dataset.FilterDemand(exploded)
	manifest.RowCounts.WithDemand = len(exploded)
	p.metrics.RowsWithDemand.Add(float64(len(exploded)))
	log.Info().Int("rows", len(exploded)).Msg("filtered zero-demand rows")

	stats := p.resolver.Annotate(ctx, exploded)
	filled := geocode.ForwardFill(exploded)
	manifest.RowCounts.GeocodeResolved = stats.Resolved
	manifest.RowCounts.GeocodeFailed = stats.Failures
	manifest.RowCounts.ForwardFilled = filled
	p.metrics.GeocodeCacheHits.Add(float64(stats.CacheHits))
	p.metrics.GeocodeResolved.Add(float64(stats.Resolved))
	p.metrics.GeocodeFailures.Add(float64(stats.Failures))
	p.metrics.PostcodesFilled.Add(float64(filled))
	log.Info().
		Int("resolved", stats.Resolved).
		Int("cache_hits", stats.CacheHits).
		Int("failures", stats.Failures).
		Int("forward_filled", filled).
		Msg("annotated postcodes")

	aggregates := aggregate.Reduce(exploded)
	manifest.RowCounts.Aggregates = len(aggregates)
	log.Info().Int("groups", len(aggregates)).Msg("aggregated locality/cuisine groups")

	records, err := p.scorer.Score(aggregates)
	if err != nil {
		return nil, fmt.Errorf("score stage: %w", err)
	}

	scoresPath := filepath.Join(p.cfg.Output.Dir, ScoresFile)
	if err := p.writer.WriteScores(scoresPath, records); err != nil {
		return nil, fmt.Errorf("export stage: %w", err)
	}

	summaryPath := filepath.Join(p.cfg.Output.Dir, SummaryFile)
	if err := p.writer.WriteSummary(summaryPath, records, p.cfg.Output.ScoreThreshold); err != nil {
		return nil, fmt.Errorf("export stage: %w", err)
	}
	manifest.Outputs = append(manifest.Outputs, scoresPath, summaryPath)

	if p.store != nil {
		if err := p.store.Store(ctx, manifest.RunID, records); err != nil {
			return nil, fmt.Errorf("sink stage: %w", err)
		}
		log.Info().Int("rows", len(records)).Msg("stored scores in sink")
	}

	metricsPath := filepath.Join(p.cfg.Output.Dir, MetricsFile)
	if err := p.metrics.WriteSnapshot(metricsPath); err != nil {
		return nil, fmt.Errorf("metrics snapshot: %w", err)
	}
	manifest.Outputs = append(manifest.Outputs, metricsPath)

	manifestPath, err := manifest.Write(p.cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	log.Info().Str("run_id", manifest.RunID).Str("manifest", manifestPath).Msg("run complete")

	return manifest, nil
}
