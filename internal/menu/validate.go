package menu

import (
	"strings"

	"countrydb/internal/country"
)

type fieldPrompt struct {
	key      string
	label    string
	validate func(string) error
}

// fieldPrompts lists the questions asked to build a record, in field order
var fieldPrompts = []fieldPrompt{
	{key: country.FieldName, label: "Name", validate: requireText(country.FieldName)},
	{key: country.FieldContinent, label: "Continent", validate: requireText(country.FieldContinent)},
	{key: country.FieldPopulation, label: "Population", validate: requireNumber(country.FieldPopulation, country.KindInteger)},
	{key: country.FieldArea, label: "Area (km^2)", validate: requireNumber(country.FieldArea, country.KindFloat)},
}

func requireText(field string) func(string) error {
	return func(s string) error {
		if !country.ValidateText(s) {
			return &country.ValidationError{Field: field, Value: s, Message: "value is empty"}
		}
		return nil
	}
}

func requireNumber(field string, kind country.NumberKind) func(string) error {
	return func(s string) error {
		if _, err := country.ParseNumber(s, kind); err != nil {
			return fieldError(err, field)
		}
		return nil
	}
}

// allowBlank accepts an empty answer, otherwise defers to validate
func allowBlank(validate func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return validate(s)
	}
}

func validateRange(field string, kind country.NumberKind) func(string) error {
	return func(s string) error {
		_, _, err := parseRange(s, field, kind)
		return err
	}
}

// parseRange reads "min, max". Both bounds follow ParseNumber; the order of
// the bounds is checked by the filters.
func parseRange(s, field string, kind country.NumberKind) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, &country.ValidationError{Field: field, Value: s, Message: "expected two values separated by a comma"}
	}

	lo, err := country.ParseNumber(parts[0], kind)
	if err != nil {
		return 0, 0, fieldError(err, field)
	}
	hi, err := country.ParseNumber(parts[1], kind)
	if err != nil {
		return 0, 0, fieldError(err, field)
	}
	return lo, hi, nil
}

func validateYesNo(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "n", "no", "s", "si", "sí":
		return nil
	}
	return &country.ValidationError{Value: s, Message: "answer y or n"}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

func fieldError(err error, field string) error {
	if ve, ok := err.(*country.ValidationError); ok {
		return &country.ValidationError{Field: field, Value: ve.Value, Message: ve.Message}
	}
	return err
}
