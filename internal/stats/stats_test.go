package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrydb/internal/country"
)

func TestMinMaxPopulation(t *testing.T) {
	records := []country.Country{
		{Name: "A", Continent: "Asia", Population: 50, Area: 1},
		{Name: "B", Continent: "Asia", Population: 10, Area: 2},
		{Name: "C", Continent: "Europe", Population: 90, Area: 3},
		{Name: "D", Continent: "Europe", Population: 10, Area: 4},
		{Name: "E", Continent: "Europe", Population: 90, Area: 5},
	}

	min, max, err := MinMaxPopulation(records)
	require.NoError(t, err)
	// First seen wins ties
	assert.Equal(t, "B", min.Name)
	assert.Equal(t, "C", max.Name)

	t.Run("Single record is both extremes", func(t *testing.T) {
		min, max, err := MinMaxPopulation(records[:1])
		require.NoError(t, err)
		assert.Equal(t, "A", min.Name)
		assert.Equal(t, "A", max.Name)
	})

	t.Run("Empty", func(t *testing.T) {
		_, _, err := MinMaxPopulation(nil)
		assert.ErrorIs(t, err, ErrEmpty)
	})
}

func TestAverages(t *testing.T) {
	records := []country.Country{
		{Name: "A", Continent: "Asia", Population: 10, Area: 1.5},
		{Name: "B", Continent: "Asia", Population: 20, Area: 2.5},
		{Name: "C", Continent: "Asia", Population: 33, Area: 5},
	}

	avg, err := AveragePopulation(records)
	require.NoError(t, err)
	assert.InDelta(t, 21.0, avg, 1e-9)

	area, err := AverageArea(records)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, area, 1e-9)

	_, err = AveragePopulation(nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = AverageArea([]country.Country{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCountByContinent(t *testing.T) {
	records := []country.Country{
		{Name: "A", Continent: "Asia"},
		{Name: "B", Continent: "Asia"},
		{Name: "C", Continent: "Europe"},
	}

	got := CountByContinent(records)
	assert.Equal(t, map[string]int{"Asia": 2, "Europe": 1}, Counts(got))

	t.Run("First seen order, exact text", func(t *testing.T) {
		got := CountByContinent([]country.Country{
			{Continent: "Europe"},
			{Continent: "asia"},
			{Continent: "Asia"},
			{Continent: "Europe"},
		})
		assert.Equal(t, []ContinentCount{
			{Continent: "Europe", Count: 2},
			{Continent: "asia", Count: 1},
			{Continent: "Asia", Count: 1},
		}, got)
	})

	assert.Empty(t, CountByContinent(nil))
}

func TestSummarize(t *testing.T) {
	records := []country.Country{
		{Name: "Chile", Continent: "South America", Population: 20, Area: 10},
		{Name: "Japan", Continent: "Asia", Population: 120, Area: 30},
	}

	s, err := Summarize(records)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, "Chile", s.MinPopulation.Name)
	assert.Equal(t, "Japan", s.MaxPopulation.Name)
	assert.InDelta(t, 70.0, s.AveragePopulation, 1e-9)
	assert.InDelta(t, 20.0, s.AverageArea, 1e-9)
	assert.Len(t, s.Continents, 2)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}
