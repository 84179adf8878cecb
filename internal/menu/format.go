package menu

import (
	"fmt"
	"io"
	"strconv"

	"countrydb/internal/country"
	"countrydb/internal/stats"
	"countrydb/internal/store"
)

// summaryEdge is how many records the summary shows from each end
const summaryEdge = 3

// Formatter renders records, statistics and reports as plain text
type Formatter struct {
	w io.Writer
}

// NewFormatter creates a Formatter writing to w
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Country writes one record on two lines
func (f *Formatter) Country(c country.Country) {
	fmt.Fprintf(f.w, "%s - %s\n%s inhab. - %s km^2\n",
		c.Name, c.Continent, strconv.FormatInt(c.Population, 10), country.FormatArea(c.Area))
}

// List writes a titled, numbered list of records
func (f *Formatter) List(title string, records []country.Country) {
	fmt.Fprintf(f.w, "%s (%d)\n", title, len(records))
	if len(records) == 0 {
		fmt.Fprintln(f.w, "No countries found")
		return
	}
	for i, c := range records {
		f.numbered(i, c)
	}
}

// Summary writes the first and last records of the list. Short lists are
// written whole so no record shows up twice.
func (f *Formatter) Summary(records []country.Country) {
	if len(records) <= 2*summaryEdge {
		f.List("Summary", records)
		return
	}

	fmt.Fprintf(f.w, "Summary (%d)\n", len(records))
	for i := 0; i < summaryEdge; i++ {
		f.numbered(i, records[i])
	}
	fmt.Fprintln(f.w, "...")
	for i := len(records) - summaryEdge; i < len(records); i++ {
		f.numbered(i, records[i])
	}
}

func (f *Formatter) numbered(i int, c country.Country) {
	fmt.Fprintf(f.w, "%d. %s - %s\n   %s inhab. - %s km^2\n",
		i+1, c.Name, c.Continent, strconv.FormatInt(c.Population, 10), country.FormatArea(c.Area))
}

// Stats writes the statistics block
func (f *Formatter) Stats(s stats.Summary) {
	fmt.Fprintf(f.w, "Statistics (%d countries)\n", s.Total)
	fmt.Fprintf(f.w, "Highest population: %s - %s (%d inhab.)\n", s.MaxPopulation.Name, s.MaxPopulation.Continent, s.MaxPopulation.Population)
	fmt.Fprintf(f.w, "Lowest population: %s - %s (%d inhab.)\n", s.MinPopulation.Name, s.MinPopulation.Continent, s.MinPopulation.Population)
	fmt.Fprintf(f.w, "Average population: %.2f inhab.\n", s.AveragePopulation)
	fmt.Fprintf(f.w, "Average area: %.2f km^2\n", s.AverageArea)
	fmt.Fprintln(f.w, "Countries per continent:")
	for _, cc := range s.Continents {
		fmt.Fprintf(f.w, "  %s: %d\n", cc.Continent, cc.Count)
	}
}

// LoadReport writes the outcome of opening the store
func (f *Formatter) LoadReport(r store.LoadReport) {
	if r.Created {
		fmt.Fprintln(f.w, "Dataset not found, created an empty one")
	}
	fmt.Fprintf(f.w, "Loaded %d countries\n", r.Loaded)
	if len(r.Skipped) == 0 {
		return
	}
	fmt.Fprintf(f.w, "Skipped rows: %d\n", len(r.Skipped))
	for _, d := range r.Skipped {
		fmt.Fprintf(f.w, "  line %d: %v\n", d.Line(), d.Err)
	}
}

// Error writes a failed operation
func (f *Formatter) Error(err error) {
	fmt.Fprintf(f.w, "Error: %v\n", err)
}

// Message writes one line of text
func (f *Formatter) Message(format string, args ...interface{}) {
	fmt.Fprintf(f.w, format+"\n", args...)
}
