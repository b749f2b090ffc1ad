package artifacts

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	atomicio "github.com/foodlytics/oppscore/internal/io"
	"github.com/foodlytics/oppscore/internal/models"
)

// Column order of the exports. The dashboard reads these by name; changing
// them is a breaking change for the downstream consumer.
var scoresHeader = []string{
	"postcode", "locality", "city", "cuisine",
	"votes", "rating", "cost_for_two", "restaurant_count", "delivery_ratio",
	"demand_score", "feasibility_score", "saturation_index", "saturation_inverse",
	"delivery_ratio_norm", "feasibility_norm", "demand_norm",
	"success_score",
}

var summaryHeader = []string{"postcode", "locality", "city", "top_score", "cuisines"}

// Writer exports the scored tables as CSV artifacts.
type Writer struct{}

// NewWriter creates an exporter.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteScores writes the full scored table to path, ranked by success score
// descending. Ties keep the deterministic aggregate key order.
func (w *Writer) WriteScores(path string, records []models.ScoreRecord) error {
	ranked := make([]models.ScoreRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SuccessScore > ranked[j].SuccessScore
	})

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(scoresHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range ranked {
		record := []string{
			r.Key.Postcode,
			r.Key.Locality,
			r.Key.City,
			r.Key.Cuisine,
			strconv.FormatInt(r.VotesSum, 10),
			formatFloat(r.RatingMean),
			formatFloat(r.CostMean),
			strconv.Itoa(r.RestaurantCount),
			formatFloat(r.DeliveryRatio),
			formatFloat(r.DemandScore),
			formatFloat(r.FeasibilityScore),
			formatFloat(r.SaturationIndex),
			formatFloat(r.SaturationInverse),
			formatFloat(r.DeliveryRatioNorm),
			formatFloat(r.FeasibilityNorm),
			formatFloat(r.DemandNorm),
			formatFloat(r.SuccessScore),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return atomicio.WriteFileAtomic(path, buf.Bytes())
}

// WriteSummary writes the high-score summary: rows scoring strictly above
// threshold, grouped by (postcode, locality, city), with the group's best
// score and its sorted, deduplicated cuisine list.
func (w *Writer) WriteSummary(path string, records []models.ScoreRecord, threshold float64) error {
	type summaryKey struct {
		postcode string
		locality string
		city     string
	}
	type summaryGroup struct {
		topScore float64
		cuisines map[string]struct{}
	}

	groups := make(map[summaryKey]*summaryGroup)

	for _, r := range records {
		if r.SuccessScore <= threshold {
			continue
		}

		key := summaryKey{
			postcode: r.Key.Postcode,
			locality: r.Key.Locality,
			city:     r.Key.City,
		}

		g, ok := groups[key]
		if !ok {
			g = &summaryGroup{cuisines: make(map[string]struct{})}
			groups[key] = g
		}

		if r.SuccessScore > g.topScore {
			g.topScore = r.SuccessScore
		}
		g.cuisines[r.Key.Cuisine] = struct{}{}
	}

	keys := make([]summaryKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if groups[keys[i]].topScore != groups[keys[j]].topScore {
			return groups[keys[i]].topScore > groups[keys[j]].topScore
		}
		a, b := keys[i], keys[j]
		if a.city != b.city {
			return a.city < b.city
		}
		if a.locality != b.locality {
			return a.locality < b.locality
		}
		return a.postcode < b.postcode
	})

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, key := range keys {
		g := groups[key]

		cuisines := make([]string, 0, len(g.cuisines))
		for cuisine := range g.cuisines {
			cuisines = append(cuisines, cuisine)
		}
		sort.Strings(cuisines)

		record := []string{
			key.postcode,
			key.locality,
			key.city,
			formatFloat(g.topScore),
			strings.Join(cuisines, ", "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return atomicio.WriteFileAtomic(path, buf.Bytes())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
