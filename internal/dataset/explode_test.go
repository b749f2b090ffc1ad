package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodlytics/oppscore/internal/models"
)

func TestExplodeEmitsOneRowPerCuisine(t *testing.T) {
	restaurants := []models.Restaurant{
		{ID: 1, Name: "Saffron House", City: "New Delhi", Locality: "Connaught Place",
			Cuisines: []string{"North Indian", "Mughlai", "Chinese"}, Votes: 350, AggregateRating: 4.2},
		{ID: 2, Name: "Chaat Corner", City: "New Delhi", Locality: "Karol Bagh",
			Cuisines: []string{"Street Food"}, Votes: 80, AggregateRating: 3.9},
		{ID: 3, Name: "Unlisted", City: "New Delhi", Locality: "Saket"},
	}

	exploded := Explode(restaurants)

	// Total output rows equal the sum of per-row cuisine counts.
	require.Len(t, exploded, 4)

	assert.Equal(t, "North Indian", exploded[0].Cuisine)
	assert.Equal(t, "Mughlai", exploded[1].Cuisine)
	assert.Equal(t, "Chinese", exploded[2].Cuisine)
	assert.Equal(t, "Street Food", exploded[3].Cuisine)

	// All other fields are duplicated per emitted row.
	for _, row := range exploded[:3] {
		assert.Equal(t, int64(1), row.ID)
		assert.Equal(t, "Connaught Place", row.Locality)
		assert.Equal(t, int64(350), row.Votes)
		assert.Equal(t, 4.2, row.AggregateRating)
	}
}

func TestExplodeEmpty(t *testing.T) {
	assert.Nil(t, Explode(nil))
	assert.Nil(t, Explode([]models.Restaurant{}))
}
