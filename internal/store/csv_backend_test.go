package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrydb/internal/country"
	"countrydb/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCSVBackend_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paises.csv")
	writeFile(t, path, "nombre,continente,poblacion,area\n"+
		"Argentina,América,45376763,2780400\n"+
		"\"Corea, Sur\",Asia,51780579,100210.5\n"+
		"Malta,Europa\n")

	rows, err := NewCSVBackend(path, DefaultColumns()).Load()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Argentina", rows[0][country.FieldName])
	assert.Equal(t, "Corea, Sur", rows[1][country.FieldName])
	assert.Equal(t, "100210.5", rows[1][country.FieldArea])

	// Ragged row: missing cells are missing fields
	_, ok := rows[2][country.FieldPopulation]
	assert.False(t, ok)
}

func TestCSVBackend_LoadMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	_, err := NewCSVBackend(filepath.Join(dir, "missing.csv"), DefaultColumns()).Load()
	assert.ErrorIs(t, err, ErrNotFound)

	empty := filepath.Join(dir, "empty.csv")
	writeFile(t, empty, "")
	_, err = NewCSVBackend(empty, DefaultColumns()).Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCSVBackend_LoadMalformedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paises.csv")
	writeFile(t, path, "nombre,continente,habitantes\nArgentina,América,1\n")

	_, err := NewCSVBackend(path, DefaultColumns()).Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "area")
	assert.Contains(t, err.Error(), "poblacion")
}

func TestCSVBackend_HeaderLookupIsLenient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paises.csv")
	writeFile(t, path, "\ufeff Area ,NOMBRE,extra,Continente,Poblacion\n"+
		"316,Malta,x,Europa,514564\n")

	rows, err := NewCSVBackend(path, DefaultColumns()).Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	c, err := country.ParseRecord(rows[0])
	require.NoError(t, err)
	assert.Equal(t, country.Country{Name: "Malta", Continent: "Europa", Population: 514564, Area: 316}, c)
}

func TestCSVBackend_CustomColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world_population.csv")
	writeFile(t, path, "Rank,CCA3,Country/Territory,Capital,Continent,2022 Population,Area (km²)\n"+
		"36,AFG,Afghanistan,Kabul,Asia,41128771,652230\n")

	columns := Columns{
		Name:       "Country/Territory",
		Continent:  "Continent",
		Population: "2022 Population",
		Area:       "Area (km²)",
	}
	rows, err := NewCSVBackend(path, columns).Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Afghanistan", rows[0][country.FieldName])
	assert.Equal(t, "41128771", rows[0][country.FieldPopulation])
	assert.Equal(t, "652230", rows[0][country.FieldArea])
}

func TestCSVBackend_Create(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "paises.csv")
	b := NewCSVBackend(path, DefaultColumns())

	require.NoError(t, b.Open())
	require.NoError(t, b.Create())
	assert.Equal(t, "nombre,continente,poblacion,area\n", readFile(t, path))

	rows, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVBackend_AppendRow(t *testing.T) {
	dir := t.TempDir()
	chile := country.Country{Name: "Chile", Continent: "América", Population: 19116201, Area: 756102.4}

	t.Run("missing file gets a header", func(t *testing.T) {
		path := filepath.Join(dir, "new.csv")
		require.NoError(t, NewCSVBackend(path, DefaultColumns()).AppendRow(chile))
		assert.Equal(t, "nombre,continente,poblacion,area\nChile,América,19116201,756102.4\n", readFile(t, path))
	})

	t.Run("missing trailing newline", func(t *testing.T) {
		path := filepath.Join(dir, "edited.csv")
		writeFile(t, path, "nombre,continente,poblacion,area\nMalta,Europa,514564,316")

		b := NewCSVBackend(path, DefaultColumns())
		require.NoError(t, b.AppendRow(chile))

		rows, err := b.Load()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Malta", rows[0][country.FieldName])
		assert.Equal(t, "Chile", rows[1][country.FieldName])
	})

	t.Run("names with commas are quoted", func(t *testing.T) {
		path := filepath.Join(dir, "quoted.csv")
		b := NewCSVBackend(path, DefaultColumns())
		require.NoError(t, b.Create())
		require.NoError(t, b.AppendRow(country.Country{Name: "Corea, Sur", Continent: "Asia", Population: 1, Area: 2}))

		assert.Contains(t, readFile(t, path), "\"Corea, Sur\",Asia,1,2\n")
	})
}

func TestCSVBackend_RewriteAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paises.csv")
	b := NewCSVBackend(path, DefaultColumns())

	records := []country.Country{
		{Name: "Argentina", Continent: "América", Population: 45376763, Area: 2780400},
		{Name: "Japan", Continent: "Asia", Population: 125800000, Area: 377975.5},
	}
	require.NoError(t, b.RewriteAll(records))
	first := readFile(t, path)

	// Loading and rewriting unchanged records keeps the file byte for byte
	rows, err := b.Load()
	require.NoError(t, err)
	loaded, diags := Load(rows)
	require.Empty(t, diags)
	assert.Equal(t, records, loaded)

	require.NoError(t, b.RewriteAll(loaded))
	assert.Equal(t, first, readFile(t, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestCSVBackend_FailedWriteRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paises.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0755))

	// Renaming a file over a non-empty directory fails
	err := NewCSVBackend(path, DefaultColumns()).Create()
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "paises.csv", entries[0].Name())
	assert.DirExists(t, filepath.Join(path, "keep"))
}

func TestCSVBackend_WithStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paises.csv")
	writeFile(t, path, "nombre,continente,poblacion,area\n"+
		"Argentina,América,45376763,2780400\n"+
		"Narnia,,1,1\n"+
		"Malta,Europa,514564,316\n")

	s := New(NewCSVBackend(path, DefaultColumns()), WithLogger(logging.DevNull()))
	report, err := s.Open()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 3, report.Skipped[0].Line())

	require.NoError(t, s.ReplaceAt(1, country.Country{Name: "Malta", Continent: "Europa", Population: 520000, Area: 316}))

	// The rewrite drops the invalid row
	assert.Equal(t, "nombre,continente,poblacion,area\n"+
		"Argentina,América,45376763,2780400\n"+
		"Malta,Europa,520000,316\n", readFile(t, path))
}

func TestCSVBackend_AppendFollowsHeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paises.csv")
	writeFile(t, path, "area,nombre,continente,poblacion\n316,Malta,Europa,514564\n")

	s := New(NewCSVBackend(path, DefaultColumns()), WithLogger(logging.DevNull()))
	_, err := s.Open()
	require.NoError(t, err)
	require.NoError(t, s.Append(country.Country{Name: "Chile", Continent: "América", Population: 19116201, Area: 756102.4}))

	assert.Equal(t, "area,nombre,continente,poblacion\n"+
		"316,Malta,Europa,514564\n"+
		"756102.4,Chile,América,19116201\n", readFile(t, path))

	reopened := New(NewCSVBackend(path, DefaultColumns()), WithLogger(logging.DevNull()))
	report, err := reopened.Open()
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	require.Equal(t, 2, reopened.Len())
	chile, err := reopened.At(1)
	require.NoError(t, err)
	assert.Equal(t, country.Country{Name: "Chile", Continent: "América", Population: 19116201, Area: 756102.4}, chile)
}

func TestCSVBackend_RewriteKeepsExtraColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world_population.csv")
	header := "Rank,CCA3,Country/Territory,Capital,Continent,2022 Population,Area (km²)\n"
	writeFile(t, path, header+
		"36,AFG,Afghanistan,Kabul,Asia,41128771,652230\n"+
		"28,KOR,\"Korea, South\",Seoul,Asia,51815810,100210\n")

	columns := Columns{
		Name:       "Country/Territory",
		Continent:  "Continent",
		Population: "2022 Population",
		Area:       "Area (km²)",
	}
	s := New(NewCSVBackend(path, columns), WithLogger(logging.DevNull()))
	_, err := s.Open()
	require.NoError(t, err)

	require.NoError(t, s.ReplaceAt(0, country.Country{Name: "Afghanistan", Continent: "Asia", Population: 42000000, Area: 652230}))
	assert.Equal(t, header+
		"36,AFG,Afghanistan,Kabul,Asia,42000000,652230\n"+
		"28,KOR,\"Korea, South\",Seoul,Asia,51815810,100210\n", readFile(t, path))

	// Rows added by the store have no values for the extra columns
	require.NoError(t, s.Append(country.Country{Name: "Chile", Continent: "South America", Population: 19603733, Area: 756102.4}))
	require.NoError(t, s.ReplaceAt(1, country.Country{Name: "Korea, South", Continent: "Asia", Population: 51815811, Area: 100210}))
	assert.Equal(t, header+
		"36,AFG,Afghanistan,Kabul,Asia,42000000,652230\n"+
		"28,KOR,\"Korea, South\",Seoul,Asia,51815811,100210\n"+
		",,Chile,,South America,19603733,756102.4\n", readFile(t, path))
}

func TestCSVBackend_DiagnosticLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{
			name: "blank lines",
			content: "nombre,continente,poblacion,area\n\n" +
				"Argentina,América,45376763,2780400\n\n" +
				"Malta,Europa,,316\n",
			line: 5,
		},
		{
			name: "quoted field spanning lines",
			content: "nombre,continente,poblacion,area\n" +
				"\"Costa\nRica\",América,5094118,51100\n" +
				"Narnia,,1,1\n",
			line: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "paises.csv")
			writeFile(t, path, tt.content)

			s := New(NewCSVBackend(path, DefaultColumns()), WithLogger(logging.DevNull()))
			report, err := s.Open()
			require.NoError(t, err)
			assert.Equal(t, 1, report.Loaded)
			require.Len(t, report.Skipped, 1)
			assert.Equal(t, tt.line, report.Skipped[0].Line())
		})
	}
}

func TestCSVBackend_Info(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paises.csv")
	b := NewCSVBackend(path, DefaultColumns())
	require.NoError(t, b.Create())

	info, err := b.Info()
	require.NoError(t, err)
	assert.Equal(t, "CSVBackend", info["implementation"])
	assert.Equal(t, "paises.csv", info["file_name"])
	assert.Equal(t, "nombre,continente,poblacion,area", info["header"])
	assert.Equal(t, "33", info["file_size"])
}
