// Package query implements read-only lookups over a slice of countries.
//
// Every function receives a borrowed slice, never modifies it, and returns
// newly allocated results that keep the input's relative order.
package query

import (
	"strconv"
	"strings"

	"countrydb/internal/country"
)

// FindByPartialName returns the first record whose name contains q.
// Both sides are compared through country.NormalizeName, so the match
// ignores case and the accented vowels it folds. The index is the record's
// position in records.
func FindByPartialName(records []country.Country, q string) (country.Country, int, error) {
	if !country.ValidateText(q) {
		return country.Country{}, -1, &country.ValidationError{Field: country.FieldName, Value: q, Message: "search text is empty"}
	}

	needle := country.NormalizeName(strings.TrimSpace(q))
	for i, c := range records {
		if strings.Contains(country.NormalizeName(c.Name), needle) {
			return c, i, nil
		}
	}

	return country.Country{}, -1, country.ErrNotFound
}

// FilterByContinent returns the records whose normalized continent equals
// the normalized input
func FilterByContinent(records []country.Country, continent string) []country.Country {
	want := country.NormalizeName(strings.TrimSpace(continent))
	return filter(records, func(c country.Country) bool {
		return country.NormalizeName(c.Continent) == want
	})
}

// FilterByPopulationRange returns the records with min <= population <= max
func FilterByPopulationRange(records []country.Country, min, max int64) ([]country.Country, error) {
	if min > max {
		return nil, &country.RangeError{
			Field: country.FieldPopulation,
			Min:   strconv.FormatInt(min, 10),
			Max:   strconv.FormatInt(max, 10),
		}
	}

	return filter(records, func(c country.Country) bool {
		return c.Population >= min && c.Population <= max
	}), nil
}

// FilterByAreaRange returns the records with min <= area <= max
func FilterByAreaRange(records []country.Country, min, max float64) ([]country.Country, error) {
	if min > max {
		return nil, &country.RangeError{
			Field: country.FieldArea,
			Min:   country.FormatArea(min),
			Max:   country.FormatArea(max),
		}
	}

	return filter(records, func(c country.Country) bool {
		return c.Area >= min && c.Area <= max
	}), nil
}

func filter(records []country.Country, keep func(country.Country) bool) []country.Country {
	results := make([]country.Country, 0)
	for _, c := range records {
		if keep(c) {
			results = append(results, c)
		}
	}
	return results
}
