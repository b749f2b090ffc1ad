package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "Restaurant ID,Restaurant Name,Country Code,City,Locality," +
	"Longitude,Latitude,Cuisines,Average Cost for two,Currency," +
	"Has Online delivery,Switch to order menu,Aggregate rating,Votes\n"

func TestLoaderFiltersCountryCode(t *testing.T) {
	input := testHeader +
		"1,Saffron House,1,New Delhi,Connaught Place,77.21,28.63,\"North Indian, Mughlai\",800,INR,Yes,No,4.2,350\n" +
		"2,Harbour Grill,189,Cape Town,Waterfront,18.42,-33.91,Seafood,500,ZAR,No,No,4.5,120\n" +
		"3,Chaat Corner,1,New Delhi,Karol Bagh,77.19,28.65,Street Food,200,INR,No,No,3.9,80\n"

	loader := NewLoader(1, "Switch to order menu")
	rows, err := loader.Load(bytes.NewReader([]byte(input)))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 1, row.CountryCode)
	}

	first := rows[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Saffron House", first.Name)
	assert.Equal(t, "Connaught Place", first.Locality)
	assert.Equal(t, []string{"North Indian", "Mughlai"}, first.Cuisines)
	assert.Equal(t, 800.0, first.AvgCostForTwo)
	assert.True(t, first.HasOnlineDelivery)
	assert.Equal(t, 4.2, first.AggregateRating)
	assert.Equal(t, int64(350), first.Votes)
	assert.InDelta(t, 77.21, first.Longitude, 1e-9)
	assert.InDelta(t, 28.63, first.Latitude, 1e-9)
}

func TestLoaderDecodesLatin1(t *testing.T) {
	// "Café Délice" with latin-1 0xE9 bytes, as the upstream export ships it.
	input := testHeader +
		"7,Caf\xe9 D\xe9lice,1,New Delhi,Hauz Khas,77.20,28.55,French,1200,INR,No,No,4.4,210\n"

	loader := NewLoader(1, "Switch to order menu")
	rows, err := loader.Load(bytes.NewReader([]byte(input)))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Café Délice", rows[0].Name)
}

func TestLoaderToleratesMissingDropColumn(t *testing.T) {
	header := "Restaurant ID,Restaurant Name,Country Code,City,Locality," +
		"Longitude,Latitude,Cuisines,Average Cost for two," +
		"Has Online delivery,Aggregate rating,Votes\n"
	input := header +
		"1,Saffron House,1,New Delhi,Connaught Place,77.21,28.63,North Indian,800,Yes,4.2,350\n"

	loader := NewLoader(1, "Switch to order menu")
	rows, err := loader.Load(bytes.NewReader([]byte(input)))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoaderRejectsMissingRequiredColumn(t *testing.T) {
	input := "Restaurant ID,Restaurant Name,Country Code,City\n1,Saffron House,1,New Delhi\n"

	loader := NewLoader(1, "")
	_, err := loader.Load(bytes.NewReader([]byte(input)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestLoaderRejectsMalformedNumbers(t *testing.T) {
	input := testHeader +
		"1,Saffron House,1,New Delhi,Connaught Place,77.21,28.63,North Indian,not-a-number,INR,Yes,No,4.2,350\n"

	loader := NewLoader(1, "Switch to order menu")
	_, err := loader.Load(bytes.NewReader([]byte(input)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Average Cost for two")
}

func TestSplitCuisines(t *testing.T) {
	assert.Equal(t, []string{"North Indian", "Mughlai"}, SplitCuisines("North Indian, Mughlai"))
	assert.Equal(t, []string{"Seafood"}, SplitCuisines("Seafood"))
	assert.Nil(t, SplitCuisines(""))
	assert.Equal(t, []string{"Thai"}, SplitCuisines(" , Thai, "))
}
