package menu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrydb/internal/country"
	"countrydb/internal/logging"
	"countrydb/internal/store"
	"countrydb/internal/tracing"
)

func newTestMenu(t *testing.T, records ...country.Country) (*Menu, *store.Store, *store.MemoryBackend, *tracing.MemoryTracer) {
	t.Helper()

	rows := make([]country.Fields, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Fields())
	}
	backend := store.NewMemoryBackendWithRows(rows...)

	mem := tracing.NewMemoryTracer()
	recorder := tracing.NewRecorder(mem)
	st := store.New(backend, store.WithLogger(logging.DevNull()), store.WithRecorder(recorder))
	_, err := st.Open()
	require.NoError(t, err)

	m := New(st, WithLogger(logging.DevNull()), WithRecorder(recorder))
	return m, st, backend, mem
}

// run feeds script to the menu, one answer per line
func run(t *testing.T, m *Menu, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	require.NoError(t, m.StartWithIO(in, &out))
	return out.String()
}

func TestMenu_ListsOptions(t *testing.T) {
	m, _, _, _ := newTestMenu(t)
	out := run(t, m, "0")

	assert.Contains(t, out, "1) Search a country\n")
	assert.Contains(t, out, "10) Update a country\n")
	assert.Contains(t, out, "0) Exit\n")
	assert.Contains(t, out, "Option: 0\nGoodbye!\n")
	assert.Len(t, m.Options(), 12)
}

func TestMenu_InvalidOption(t *testing.T) {
	m, _, _, _ := newTestMenu(t)
	out := run(t, m, "99", "abc", "0")

	assert.Equal(t, 2, strings.Count(out, "Invalid option\n"))
}

func TestMenu_EndOfInput(t *testing.T) {
	m, _, _, _ := newTestMenu(t, argentina)
	out := run(t, m, "11")

	assert.Contains(t, out, "Summary (1)")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestMenu_Search(t *testing.T) {
	m, _, _, mem := newTestMenu(t, argentina, mexico, japan)

	out := run(t, m, "1", "MEXI", "1", "atlantis", "1", "  ", "0")

	assert.Contains(t, out, "Country name: MEXI\nMéxico - América\n126014024 inhab. - 1964375 km^2\n")
	assert.Contains(t, out, "Country name: atlantis\nCountry not found\n")
	assert.Contains(t, out, "Error: nombre: value is empty\n")
	assert.Contains(t, mem.Operations(), tracing.OperationSearch)
}

func TestMenu_Filters(t *testing.T) {
	m, _, _, _ := newTestMenu(t, argentina, japan, malta, chile)

	out := run(t, m,
		"2", "america",
		"3", "1000000, 50000000",
		"3", "10,1",
		"4", "300,400000",
		"4", "1;2",
		"0",
	)

	assert.Contains(t, out, "Countries in america (2)\n1. Argentina - América\n")
	assert.Contains(t, out, "Population between 1000000 and 50000000 (2)\n1. Argentina")
	assert.Contains(t, out, "Error: invalid poblacion range: minimum 10 is greater than maximum 1\n")
	assert.Contains(t, out, "Area between 300 and 400000 km^2 (2)\n1. Japan - Asia\n")
	assert.Contains(t, out, "Error: area: expected two values separated by a comma\n")
}

func TestMenu_Sorts(t *testing.T) {
	m, _, _, _ := newTestMenu(t, malta, argentina, japan)

	out := run(t, m, "5", "6", "7", "y", "7", "n", "0")

	assert.Contains(t, out, "Sorted by name (3)\n1. Argentina")
	assert.Contains(t, out, "Sorted by population (3)\n1. Malta")
	assert.Contains(t, out, "Sorted by area, descending (3)\n1. Argentina")
	assert.Contains(t, out, "Sorted by area, ascending (3)\n1. Malta")
}

func TestMenu_Stats(t *testing.T) {
	m, _, _, _ := newTestMenu(t, argentina, japan)
	out := run(t, m, "8", "0")
	assert.Contains(t, out, "Statistics (2 countries)\nHighest population: Japan - Asia (125800000 inhab.)\n")

	empty, _, _, _ := newTestMenu(t)
	out = run(t, empty, "8", "0")
	assert.Contains(t, out, "No countries loaded\n")
}

func TestMenu_Add(t *testing.T) {
	m, st, backend, _ := newTestMenu(t, argentina)

	out := run(t, m, "9", "Chile", "América", "19116201", "756102.5", "0")

	assert.Contains(t, out, "Added Chile\n")
	require.Equal(t, 2, st.Len())
	got, err := st.At(1)
	require.NoError(t, err)
	assert.Equal(t, chile, got)
	assert.Len(t, backend.Rows(), 2)
}

func TestMenu_AddRejectsInvalidValue(t *testing.T) {
	m, st, _, _ := newTestMenu(t, argentina)

	out := run(t, m, "9", "Chile", "América", "-5", "0")

	assert.Contains(t, out, "Error: poblacion: value is not an unsigned decimal number\n")
	assert.Equal(t, 1, st.Len())
}

func TestMenu_AddBackendFailure(t *testing.T) {
	m, st, backend, _ := newTestMenu(t, argentina)
	backend.FailWith(errors.New("disk full"))

	out := run(t, m, "9", "Chile", "América", "1", "1", "0")

	assert.Contains(t, out, "Error: memory backend: append failed: disk full\n")
	assert.Equal(t, 1, st.Len())
}

func TestMenu_Update(t *testing.T) {
	m, st, backend, _ := newTestMenu(t, argentina, malta)

	out := run(t, m, "10", "malt", "", "", "520000", "", "0")

	assert.Contains(t, out, "Malta - Europa\n514564 inhab. - 316 km^2\nLeave a field blank to keep its value\n")
	assert.Contains(t, out, "Population [514564]: 520000\n")
	assert.Contains(t, out, "Updated Malta\n")

	got, err := st.At(1)
	require.NoError(t, err)
	assert.Equal(t, country.Country{Name: "Malta", Continent: "Europa", Population: 520000, Area: 316}, got)
	assert.Equal(t, "520000", backend.Rows()[1][country.FieldPopulation])
}

func TestMenu_UpdateNotFound(t *testing.T) {
	m, _, _, _ := newTestMenu(t, argentina)

	out := run(t, m, "10", "narnia", "0")
	assert.Contains(t, out, "Country not found\n")
}

func TestMenu_TracesCommands(t *testing.T) {
	m, _, _, mem := newTestMenu(t, argentina)
	run(t, m, "5", "0")

	var codes []string
	for _, e := range mem.Events() {
		if e.Component == tracing.ComponentMenu {
			codes = append(codes, e.ObjectID)
		}
	}
	assert.Equal(t, []string{"5", "0"}, codes)
}
