package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	assert.True(t, ValidateText("Chile"))
	assert.True(t, ValidateText("  a "))
	assert.False(t, ValidateText(""))
	assert.False(t, ValidateText("   "))
	assert.False(t, ValidateText("\t\n"))
}

func TestParseNumber(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		cases := map[string]float64{
			"12":      12,
			" 12 ":    12,
			"12.5":    12.5,
			".5":      0.5,
			"5.":      5,
			"0":       0,
			"007":     7,
			"2780400": 2780400,
		}
		for in, want := range cases {
			got, err := ParseNumber(in, KindFloat)
			require.NoError(t, err, "input %q", in)
			assert.Equal(t, want, got, "input %q", in)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		for _, in := range []string{"", "   ", ".", "-1", "+1", "1e3", "1.2.3", "1,000", "abc", "12a", "1 000"} {
			_, err := ParseNumber(in, KindFloat)
			assert.Error(t, err, "input %q", in)
			assert.True(t, IsValidation(err), "input %q", in)
		}
	})

	t.Run("Integer truncates", func(t *testing.T) {
		v, err := ParseNumber("12.9", KindInteger)
		require.NoError(t, err)
		assert.Equal(t, float64(12), v)

		n, err := ParseInteger("12.9")
		require.NoError(t, err)
		assert.Equal(t, int64(12), n)
	})

	t.Run("Integer overflow", func(t *testing.T) {
		_, err := ParseInteger("9223372036854775808")
		assert.Error(t, err)

		_, err = ParseInteger("99999999999999999999999")
		assert.Error(t, err)
	})
}

func TestParseRecord(t *testing.T) {
	valid := Fields{
		FieldName:       " Argentina ",
		FieldContinent:  "South America",
		FieldPopulation: "45510318",
		FieldArea:       "2780400",
	}

	t.Run("Valid", func(t *testing.T) {
		c, err := ParseRecord(valid)
		require.NoError(t, err)
		assert.Equal(t, Country{
			Name:       "Argentina",
			Continent:  "South America",
			Population: 45510318,
			Area:       2780400,
		}, c)
	})

	invalid := []struct {
		name  string
		field string
		value string
	}{
		{"empty name", FieldName, ""},
		{"blank name", FieldName, "   "},
		{"blank continent", FieldContinent, " "},
		{"negative population", FieldPopulation, "-5"},
		{"text population", FieldPopulation, "many"},
		{"empty population", FieldPopulation, ""},
		{"scientific area", FieldArea, "1e5"},
		{"empty area", FieldArea, ""},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			f := Fields{}
			for k, v := range valid {
				f[k] = v
			}
			f[tc.field] = tc.value

			c, err := ParseRecord(f)
			require.Error(t, err)
			assert.Equal(t, Country{}, c)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	t.Run("Missing key", func(t *testing.T) {
		_, err := ParseRecord(Fields{FieldName: "Chile", FieldContinent: "South America", FieldArea: "1"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, FieldPopulation, ve.Field)
	})
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "a", NormalizeName("Á"))
	assert.Equal(t, "mexico", NormalizeName("México"))
	assert.Equal(t, "peru", NormalizeName("PERÚ"))
	assert.Equal(t, "aeiou", NormalizeName("áéíóú"))
	// Only the fixed vowel set is folded
	assert.Equal(t, "españa", NormalizeName("España"))
	assert.Equal(t, "pingüino", NormalizeName("Pingüino"))
	// Decomposed input is composed before folding
	assert.Equal(t, "mexico", NormalizeName("Me\u0301xico"))
}

func TestCountryFieldsRoundTrip(t *testing.T) {
	c := Country{Name: "Chile", Continent: "South America", Population: 19603733, Area: 756102.5}

	assert.Equal(t, []string{"Chile", "South America", "19603733", "756102.5"}, c.Row())

	back, err := ParseRecord(c.Fields())
	require.NoError(t, err)
	assert.Equal(t, c, back)
}
