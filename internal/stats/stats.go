// Package stats computes aggregate figures over a slice of countries.
package stats

import (
	"errors"

	"countrydb/internal/country"
)

// ErrEmpty is returned by aggregates that are undefined without records
var ErrEmpty = errors.New("no records to aggregate")

// ContinentCount is the number of records sharing one continent value
type ContinentCount struct {
	Continent string
	Count     int
}

// Summary bundles every aggregate shown to the user
type Summary struct {
	Total             int
	MinPopulation     country.Country
	MaxPopulation     country.Country
	AveragePopulation float64
	AverageArea       float64
	Continents        []ContinentCount
}

// MinMaxPopulation returns the least and most populated records in one pass.
// The first record seen wins a tie on either end.
func MinMaxPopulation(records []country.Country) (min, max country.Country, err error) {
	if len(records) == 0 {
		return country.Country{}, country.Country{}, ErrEmpty
	}

	min, max = records[0], records[0]
	for _, c := range records[1:] {
		if c.Population < min.Population {
			min = c
		}
		if c.Population > max.Population {
			max = c
		}
	}
	return min, max, nil
}

// AveragePopulation returns the mean population
func AveragePopulation(records []country.Country) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmpty
	}

	var sum float64
	for _, c := range records {
		sum += float64(c.Population)
	}
	return sum / float64(len(records)), nil
}

// AverageArea returns the mean area
func AverageArea(records []country.Country) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmpty
	}

	var sum float64
	for _, c := range records {
		sum += c.Area
	}
	return sum / float64(len(records)), nil
}

// CountByContinent groups records by their exact continent text.
// Groups appear in the order their continent is first seen.
func CountByContinent(records []country.Country) []ContinentCount {
	counts := make([]ContinentCount, 0)
	index := make(map[string]int)

	for _, c := range records {
		if i, ok := index[c.Continent]; ok {
			counts[i].Count++
			continue
		}
		index[c.Continent] = len(counts)
		counts = append(counts, ContinentCount{Continent: c.Continent, Count: 1})
	}
	return counts
}

// Counts flattens grouped counts into a map
func Counts(groups []ContinentCount) map[string]int {
	out := make(map[string]int, len(groups))
	for _, g := range groups {
		out[g.Continent] = g.Count
	}
	return out
}

// Summarize computes every aggregate at once
func Summarize(records []country.Country) (Summary, error) {
	min, max, err := MinMaxPopulation(records)
	if err != nil {
		return Summary{}, err
	}

	// Cannot fail once MinMaxPopulation succeeded
	avgPop, _ := AveragePopulation(records)
	avgArea, _ := AverageArea(records)

	return Summary{
		Total:             len(records),
		MinPopulation:     min,
		MaxPopulation:     max,
		AveragePopulation: avgPop,
		AverageArea:       avgArea,
		Continents:        CountByContinent(records),
	}, nil
}
