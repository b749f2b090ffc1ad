package artifacts

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	atomicio "github.com/foodlytics/oppscore/internal/io"
)

// Manifest records what one pipeline run read, kept, and wrote. It lands
// next to the exports so a dashboard refresh is traceable to its inputs.
type Manifest struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	InputPath  string    `json:"input_path"`

	RowCounts struct {
		Loaded          int `json:"loaded"`
		Exploded        int `json:"exploded"`
		WithDemand      int `json:"with_demand"`
		Aggregates      int `json:"aggregates"`
		GeocodeResolved int `json:"geocode_resolved"`
		GeocodeFailed   int `json:"geocode_failed"`
		ForwardFilled   int `json:"forward_filled"`
	} `json:"row_counts"`

	Outputs []string `json:"outputs"`
}

// NewManifest starts a manifest for a new run.
func NewManifest(inputPath string) *Manifest {
	return &Manifest{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		InputPath: inputPath,
	}
}

// Write stamps the finish time and writes the manifest into dir. Returns the
// manifest path.
func (m *Manifest) Write(dir string) (string, error) {
	m.FinishedAt = time.Now().UTC()

	path := filepath.Join(dir, "manifest.json")
	if err := atomicio.WriteJSONAtomic(path, m); err != nil {
		return "", err
	}

	return path, nil
}
