// Package sorting orders countries without touching the caller's slice.
// All sorts are stable: records comparing equal keep their input order.
package sorting

import (
	"sort"

	"countrydb/internal/country"
)

// Key identifies the field a list is ordered by
type Key string

const (
	KeyName       Key = "name"
	KeyPopulation Key = "population"
	KeyArea       Key = "area"
)

// ByName returns a copy ordered by raw name, ascending
func ByName(records []country.Country) []country.Country {
	return sorted(records, func(a, b country.Country) bool {
		return a.Name < b.Name
	})
}

// ByPopulation returns a copy ordered by population, ascending
func ByPopulation(records []country.Country) []country.Country {
	return sorted(records, func(a, b country.Country) bool {
		return a.Population < b.Population
	})
}

// ByArea returns a copy ordered by area, ascending unless descending is set
func ByArea(records []country.Country, descending bool) []country.Country {
	if descending {
		return sorted(records, func(a, b country.Country) bool {
			return a.Area > b.Area
		})
	}
	return sorted(records, func(a, b country.Country) bool {
		return a.Area < b.Area
	})
}

// By dispatches to the sort for key
func By(records []country.Country, key Key, descending bool) []country.Country {
	switch key {
	case KeyPopulation:
		return ByPopulation(records)
	case KeyArea:
		return ByArea(records, descending)
	default:
		return ByName(records)
	}
}

func sorted(records []country.Country, less func(a, b country.Country) bool) []country.Country {
	out := make([]country.Country, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}
