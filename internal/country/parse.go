package country

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NumberKind selects the type ParseNumber converts to
type NumberKind int

const (
	KindInteger NumberKind = iota
	KindFloat
)

// String returns the name of the number kind
func (k NumberKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// accentFolds is the fixed set of accented vowels folded by NormalizeName
var accentFolds = map[rune]rune{
	'á': 'a',
	'é': 'e',
	'í': 'i',
	'ó': 'o',
	'ú': 'u',
}

// ValidateText reports whether s holds something other than whitespace
func ValidateText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ParseNumber parses unsigned decimal text.
//
// After trimming, the text may contain at most one '.' and otherwise only
// ASCII digits, so signs, exponents and separators are rejected. The value is
// parsed as a float; KindInteger truncates it toward zero.
func ParseNumber(s string, kind NumberKind) (float64, error) {
	s = strings.TrimSpace(s)
	if !ValidateText(s) {
		return 0, &ValidationError{Value: s, Message: "value is empty"}
	}

	digits := strings.Replace(s, ".", "", 1)
	if digits == "" || strings.IndexFunc(digits, notDigit) >= 0 {
		return 0, &ValidationError{Value: s, Message: "value is not an unsigned decimal number"}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValidationError{Value: s, Message: "value is out of range"}
	}

	if kind == KindInteger {
		value = math.Trunc(value)
		// float64(MaxInt64) rounds up to 2^63, which no longer fits
		if value >= math.MaxInt64 {
			return 0, &ValidationError{Value: s, Message: "value does not fit an integer"}
		}
	}

	return value, nil
}

// ParseInteger parses s with ParseNumber and returns it as an int64
func ParseInteger(s string) (int64, error) {
	v, err := ParseNumber(s, KindInteger)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// ParseFloat parses s with ParseNumber and returns it as a float64
func ParseFloat(s string) (float64, error) {
	return ParseNumber(s, KindFloat)
}

// ParseRecord builds a Country from a raw row.
// The first invalid field aborts the parse; no partial record is returned.
func ParseRecord(fields Fields) (Country, error) {
	name := fields[FieldName]
	if !ValidateText(name) {
		return Country{}, &ValidationError{Field: FieldName, Value: name, Message: "name is required"}
	}

	continent := fields[FieldContinent]
	if !ValidateText(continent) {
		return Country{}, &ValidationError{Field: FieldContinent, Value: continent, Message: "continent is required"}
	}

	population, err := ParseInteger(fields[FieldPopulation])
	if err != nil {
		return Country{}, withField(err, FieldPopulation)
	}

	area, err := ParseFloat(fields[FieldArea])
	if err != nil {
		return Country{}, withField(err, FieldArea)
	}

	return Country{
		Name:       strings.TrimSpace(name),
		Continent:  strings.TrimSpace(continent),
		Population: population,
		Area:       area,
	}, nil
}

// NormalizeName lowercases s and folds á, é, í, ó, ú to their base vowel.
// Used for case and accent insensitive comparisons.
func NormalizeName(s string) string {
	t := transform.Chain(
		norm.NFC,
		cases.Lower(language.Und),
		runes.Map(foldAccent),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		// The chain only fails on invalid UTF-8; fall back to a plain fold
		return strings.Map(foldAccent, strings.ToLower(s))
	}
	return out
}

func foldAccent(r rune) rune {
	if base, ok := accentFolds[r]; ok {
		return base
	}
	return r
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}

func withField(err error, field string) error {
	if ve, ok := err.(*ValidationError); ok {
		return &ValidationError{Field: field, Value: ve.Value, Message: ve.Message}
	}
	return err
}
