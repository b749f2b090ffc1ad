package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/foodlytics/oppscore/internal/models"
)

// Column names of the raw listings CSV. The upstream export spells these
// exactly; the loader matches them case-sensitively.
const (
	colID          = "Restaurant ID"
	colName        = "Restaurant Name"
	colCountryCode = "Country Code"
	colCity        = "City"
	colLocality    = "Locality"
	colLongitude   = "Longitude"
	colLatitude    = "Latitude"
	colCuisines    = "Cuisines"
	colCost        = "Average Cost for two"
	colDelivery    = "Has Online delivery"
	colRating      = "Aggregate rating"
	colVotes       = "Votes"
)

var requiredColumns = []string{
	colID, colName, colCountryCode, colCity, colLocality,
	colLongitude, colLatitude, colCuisines, colCost,
	colDelivery, colRating, colVotes,
}

// Loader reads the latin-1 encoded listings CSV and applies the row-level
// country filter while parsing.
type Loader struct {
	countryCode int
	dropColumn  string
}

// NewLoader creates a loader that retains rows matching countryCode and
// drops dropColumn from the parsed schema if present.
func NewLoader(countryCode int, dropColumn string) *Loader {
	return &Loader{
		countryCode: countryCode,
		dropColumn:  dropColumn,
	}
}

// LoadFile opens path and loads it. The file is decoded from latin-1; the
// upstream dataset is not UTF-8.
func (l *Loader) LoadFile(path string) ([]models.Restaurant, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer file.Close()

	return l.Load(file)
}

// Load parses the CSV from r. Malformed rows abort the load: a wrong schema
// is a broken dataset refresh, not something to score around.
func (l *Loader) Load(r io.Reader) ([]models.Restaurant, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	// Dropping a column that is not there is not an error: the export
	// schema has carried this column on and off across refreshes.
	delete(columns, l.dropColumn)

	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("input is missing required column %q", name)
		}
	}

	var restaurants []models.Restaurant
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		row, err := l.parseRow(columns, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if row.CountryCode != l.countryCode {
			continue
		}

		restaurants = append(restaurants, row)
	}

	return restaurants, nil
}

func (l *Loader) parseRow(columns map[string]int, record []string) (models.Restaurant, error) {
	field := func(name string) (string, error) {
		idx := columns[name]
		if idx >= len(record) {
			return "", fmt.Errorf("row too short for column %q", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	var row models.Restaurant
	var err error

	for name, dst := range map[string]*string{
		colName:     &row.Name,
		colCity:     &row.City,
		colLocality: &row.Locality,
	} {
		if *dst, err = field(name); err != nil {
			return row, err
		}
	}

	if row.ID, err = parseInt(field, colID); err != nil {
		return row, err
	}
	if row.Votes, err = parseInt(field, colVotes); err != nil {
		return row, err
	}

	countryCode, err := parseInt(field, colCountryCode)
	if err != nil {
		return row, err
	}
	row.CountryCode = int(countryCode)

	if row.Longitude, err = parseFloat(field, colLongitude); err != nil {
		return row, err
	}
	if row.Latitude, err = parseFloat(field, colLatitude); err != nil {
		return row, err
	}
	if row.AvgCostForTwo, err = parseFloat(field, colCost); err != nil {
		return row, err
	}
	if row.AggregateRating, err = parseFloat(field, colRating); err != nil {
		return row, err
	}

	delivery, err := field(colDelivery)
	if err != nil {
		return row, err
	}
	row.HasOnlineDelivery = strings.EqualFold(delivery, "Yes")

	cuisines, err := field(colCuisines)
	if err != nil {
		return row, err
	}
	row.Cuisines = SplitCuisines(cuisines)

	return row, nil
}

// SplitCuisines splits the comma-separated cuisines field into trimmed
// values, skipping empty tokens.
func SplitCuisines(raw string) []string {
	var cuisines []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			cuisines = append(cuisines, token)
		}
	}
	return cuisines
}

func parseInt(field func(string) (string, error), name string) (int64, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer in column %q: %q", name, raw)
	}

	return value, nil
}

func parseFloat(field func(string) (string, error), name string) (float64, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in column %q: %q", name, raw)
	}

	return value, nil
}
