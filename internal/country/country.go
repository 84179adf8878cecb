package country

import (
	"strconv"
)

// Field keys of a raw country row
const (
	FieldName       = "nombre"     // Country name
	FieldContinent  = "continente" // Continent the country belongs to
	FieldPopulation = "poblacion"  // Population, decimal integer text
	FieldArea       = "area"       // Area in km^2, decimal text
)

// FieldOrder is the column order used when a record is written out
var FieldOrder = []string{FieldName, FieldContinent, FieldPopulation, FieldArea}

// Fields is an untyped raw row as read from storage or typed in by a user.
// It only lives on the parse boundary; ParseRecord turns it into a Country.
type Fields map[string]string

// Country represents a single record of the dataset
type Country struct {
	Name       string  // Free text, never empty
	Continent  string  // Free text, never empty
	Population int64   // Number of inhabitants, >= 0
	Area       float64 // Surface in km^2, >= 0
}

// Fields converts the record back into its raw textual form
func (c Country) Fields() Fields {
	return Fields{
		FieldName:       c.Name,
		FieldContinent:  c.Continent,
		FieldPopulation: strconv.FormatInt(c.Population, 10),
		FieldArea:       FormatArea(c.Area),
	}
}

// Row returns the record as a slice ordered by FieldOrder
func (c Country) Row() []string {
	f := c.Fields()
	row := make([]string, len(FieldOrder))
	for i, key := range FieldOrder {
		row[i] = f[key]
	}
	return row
}

// FormatArea renders an area with the shortest text that parses back to the same value
func FormatArea(area float64) string {
	return strconv.FormatFloat(area, 'f', -1, 64)
}
