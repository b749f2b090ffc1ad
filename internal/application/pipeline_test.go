package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodlytics/oppscore/internal/config"
	"github.com/foodlytics/oppscore/internal/geocode"
	"github.com/foodlytics/oppscore/internal/models"
)

const testCSV = `Restaurant ID,Restaurant Name,Country Code,City,Locality,Longitude,Latitude,Cuisines,Average Cost for two,Currency,Has Online delivery,Switch to order menu,Aggregate rating,Votes
1,Saffron House,1,New Delhi,Connaught Place,77.21,28.63,"North Indian, Mughlai",800,INR,Yes,No,4.0,100
2,Punjab Kitchen,1,New Delhi,Connaught Place,77.21,28.63,North Indian,1200,INR,No,No,4.5,200
3,Chaat Corner,1,New Delhi,Karol Bagh,77.19,28.65,Street Food,200,INR,No,No,3.9,80
4,Ghost Listing,1,New Delhi,Connaught Place,77.21,28.63,Chinese,500,INR,No,No,4.1,0
5,Harbour Grill,189,Cape Town,Waterfront,18.42,-33.91,Seafood,500,ZAR,No,No,4.5,120
`

type fixedProvider struct {
	postcodes map[string]string
}

func (p *fixedProvider) Reverse(_ context.Context, lat, lon float64) (string, error) {
	postcode, ok := p.postcodes[fmt.Sprintf("%.2f,%.2f", lat, lon)]
	if !ok {
		return "", errors.New("service unavailable")
	}
	return postcode, nil
}

type captureStore struct {
	runID   string
	records []models.ScoreRecord
}

func (s *captureStore) Store(_ context.Context, runID string, records []models.ScoreRecord) error {
	s.runID = runID
	s.records = records
	return nil
}

func testPipelineConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "listings.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte(testCSV), 0644))

	cfg := config.Default()
	cfg.Input.Path = inputPath
	cfg.Output.Dir = filepath.Join(dir, "out")
	return cfg
}

func TestPipelineRun(t *testing.T) {
	cfg := testPipelineConfig(t)

	provider := &fixedProvider{postcodes: map[string]string{
		"28.63,77.21": "110001",
	}}
	store := &captureStore{}

	pipeline, err := NewWithComponents(cfg, provider, geocode.NewMemoryCache(), store)
	require.NoError(t, err)

	manifest, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	// Stage counts: country filter keeps 4 of 5 rows, explode yields 5,
	// the zero-vote listing is dropped, three groups remain.
	assert.Equal(t, 4, manifest.RowCounts.Loaded)
	assert.Equal(t, 5, manifest.RowCounts.Exploded)
	assert.Equal(t, 4, manifest.RowCounts.WithDemand)
	assert.Equal(t, 3, manifest.RowCounts.Aggregates)

	// One coordinate resolved, repeats from cache, Karol Bagh unreachable.
	assert.Equal(t, 1, manifest.RowCounts.GeocodeResolved)
	assert.Equal(t, 1, manifest.RowCounts.GeocodeFailed)
	assert.Equal(t, 0, manifest.RowCounts.ForwardFilled)

	for _, name := range []string{ScoresFile, SummaryFile, MetricsFile, "manifest.json"} {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, name))
		assert.NoError(t, err, name)
	}

	// The sink received the full scored table under this run's id.
	assert.Equal(t, manifest.RunID, store.runID)
	assert.Len(t, store.records, 3)
}

func TestPipelineRunWithoutStore(t *testing.T) {
	cfg := testPipelineConfig(t)

	provider := &fixedProvider{postcodes: map[string]string{
		"28.63,77.21": "110001",
		"28.65,77.19": "110005",
	}}

	pipeline, err := NewWithComponents(cfg, provider, geocode.NewMemoryCache(), nil)
	require.NoError(t, err)

	manifest, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, manifest.RowCounts.GeocodeResolved)
	assert.Equal(t, 0, manifest.RowCounts.GeocodeFailed)
	assert.NotEmpty(t, manifest.RunID)
	assert.Len(t, manifest.Outputs, 3)
}

func TestPipelineRejectsMissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Path = filepath.Join(t.TempDir(), "missing.csv")
	cfg.Output.Dir = t.TempDir()

	pipeline, err := NewWithComponents(cfg, &fixedProvider{}, geocode.NewMemoryCache(), nil)
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load stage")
}
