// Package menu implements the interactive country menu.
package menu

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"countrydb/internal/country"
	"countrydb/internal/logging"
	"countrydb/internal/query"
	"countrydb/internal/sorting"
	"countrydb/internal/stats"
	"countrydb/internal/store"
	"countrydb/internal/tracing"
)

// errQuit ends the menu loop
var errQuit = errors.New("quit")

// Command is one menu entry
type Command struct {
	Code    string
	Label   string
	Handler func() error
}

// Menu drives the store from user commands
type Menu struct {
	store    *store.Store
	logger   *logging.Logger
	recorder *tracing.Recorder
	commands []Command
	input    Input
	out      *Formatter
}

// MenuOption configures a Menu
type MenuOption func(*Menu)

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) MenuOption {
	return func(m *Menu) {
		m.logger = logger
	}
}

// WithRecorder sets the audit trail recorder
func WithRecorder(recorder *tracing.Recorder) MenuOption {
	return func(m *Menu) {
		m.recorder = recorder
	}
}

// New creates a menu over st
func New(st *store.Store, opts ...MenuOption) *Menu {
	m := &Menu{store: st}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.Get()
	}
	if m.recorder == nil {
		m.recorder = tracing.NewRecorder(nil)
	}
	m.registerCommands()
	return m
}

// Options returns the menu entries in display order
func (m *Menu) Options() []Option {
	options := make([]Option, 0, len(m.commands))
	for _, c := range m.commands {
		options = append(options, Option{Code: c.Code, Label: c.Label})
	}
	return options
}

// Start runs the menu on the terminal
func (m *Menu) Start() error {
	return m.StartWithIO(os.Stdin, os.Stdout)
}

// StartWithIO runs the menu over in and out. Standard input gets promptui
// prompts; any other reader is read line by line.
func (m *Menu) StartWithIO(in io.Reader, out io.Writer) error {
	if in == os.Stdin {
		return m.Run(NewPromptInput(in, out), out)
	}
	return m.Run(NewLineInput(in, out), out)
}

// Run reads commands from input until the user exits or input ends
func (m *Menu) Run(input Input, out io.Writer) error {
	m.input = input
	m.out = NewFormatter(out)
	options := m.Options()

	m.logger.Info("Menu started", "records", m.store.Len())

	for {
		code, err := input.Choose("Option", options)
		if errors.Is(err, ErrAborted) {
			m.out.Message("Goodbye!")
			m.logger.Info("Menu input ended")
			return nil
		}
		if err != nil {
			m.logger.Error("Reading option failed", "error", err)
			return err
		}

		err = m.dispatch(strings.TrimSpace(code))
		if errors.Is(err, errQuit) {
			return nil
		}
		if errors.Is(err, ErrAborted) {
			m.out.Message("Goodbye!")
			return nil
		}
	}
}

// dispatch runs one command; its errors are reported, not returned,
// except for quitting and aborted input
func (m *Menu) dispatch(code string) error {
	cmd, ok := m.command(code)
	if !ok {
		m.logger.Warn("Invalid option", "code", code)
		m.out.Message("Invalid option")
		return nil
	}

	m.logger.Debug("Command selected", "code", cmd.Code, "command", cmd.Label)
	m.recorder.Record(tracing.ComponentMenu, tracing.OperationCommand, tracing.LevelInfo, cmd.Code, cmd.Label, nil)

	err := cmd.Handler()
	switch {
	case err == nil, errors.Is(err, errQuit), errors.Is(err, ErrAborted):
		return err
	case errors.Is(err, country.ErrNotFound):
		m.out.Message("Country not found")
	case errors.Is(err, stats.ErrEmpty):
		m.out.Message("No countries loaded")
	default:
		m.logger.Warn("Command failed", "command", cmd.Label, "error", err)
		m.out.Error(err)
	}
	return nil
}

func (m *Menu) command(code string) (Command, bool) {
	for _, c := range m.commands {
		if c.Code == code {
			return c, true
		}
	}
	return Command{}, false
}

func (m *Menu) registerCommands() {
	m.commands = []Command{
		{Code: "1", Label: "Search a country", Handler: m.search},
		{Code: "2", Label: "Filter by continent", Handler: m.filterContinent},
		{Code: "3", Label: "Filter by population range", Handler: m.filterPopulation},
		{Code: "4", Label: "Filter by area range", Handler: m.filterArea},
		{Code: "5", Label: "Sort by name", Handler: m.sortBy(sorting.KeyName)},
		{Code: "6", Label: "Sort by population", Handler: m.sortBy(sorting.KeyPopulation)},
		{Code: "7", Label: "Sort by area", Handler: m.sortByArea},
		{Code: "8", Label: "Show statistics", Handler: m.showStats},
		{Code: "9", Label: "Add a country", Handler: m.add},
		{Code: "10", Label: "Update a country", Handler: m.update},
		{Code: "11", Label: "Show summary", Handler: m.summary},
		{Code: "0", Label: "Exit", Handler: m.exit},
	}
}

func (m *Menu) search() error {
	q, err := m.input.Ask("Country name", requireText(country.FieldName))
	if err != nil {
		return err
	}

	c, index, err := query.FindByPartialName(m.store.Records(), q)
	m.recorder.Record(tracing.ComponentQuery, tracing.OperationSearch, tracing.LevelDebug,
		fmt.Sprint(index), q, nil)
	if err != nil {
		return err
	}

	m.out.Country(c)
	return nil
}

func (m *Menu) filterContinent() error {
	continent, err := m.input.Ask("Continent", requireText(country.FieldContinent))
	if err != nil {
		return err
	}

	result := query.FilterByContinent(m.store.Records(), continent)
	m.traceResult(tracing.OperationFilter, "continent", len(result))
	m.out.List(fmt.Sprintf("Countries in %s", strings.TrimSpace(continent)), result)
	return nil
}

func (m *Menu) filterPopulation() error {
	answer, err := m.input.Ask("Population range (min, max)", validateRange(country.FieldPopulation, country.KindInteger))
	if err != nil {
		return err
	}

	lo, hi, err := parseRange(answer, country.FieldPopulation, country.KindInteger)
	if err != nil {
		return err
	}

	min, max := int64(lo), int64(hi)
	result, err := query.FilterByPopulationRange(m.store.Records(), min, max)
	if err != nil {
		return err
	}

	m.traceResult(tracing.OperationFilter, "population", len(result))
	m.out.List(fmt.Sprintf("Population between %d and %d", min, max), result)
	return nil
}

func (m *Menu) filterArea() error {
	answer, err := m.input.Ask("Area range (min, max)", validateRange(country.FieldArea, country.KindFloat))
	if err != nil {
		return err
	}

	min, max, err := parseRange(answer, country.FieldArea, country.KindFloat)
	if err != nil {
		return err
	}

	result, err := query.FilterByAreaRange(m.store.Records(), min, max)
	if err != nil {
		return err
	}

	m.traceResult(tracing.OperationFilter, "area", len(result))
	m.out.List(fmt.Sprintf("Area between %s and %s km^2", country.FormatArea(min), country.FormatArea(max)), result)
	return nil
}

func (m *Menu) sortBy(key sorting.Key) func() error {
	return func() error {
		result := sorting.By(m.store.Records(), key, false)
		m.traceResult(tracing.OperationSort, string(key), len(result))
		m.out.List("Sorted by "+string(key), result)
		return nil
	}
}

func (m *Menu) sortByArea() error {
	answer, err := m.input.Ask("Descending? (y/n)", validateYesNo)
	if err != nil {
		return err
	}

	descending := isYes(answer)
	result := sorting.ByArea(m.store.Records(), descending)

	order := "ascending"
	if descending {
		order = "descending"
	}
	m.traceResult(tracing.OperationSort, "area "+order, len(result))
	m.out.List("Sorted by area, "+order, result)
	return nil
}

func (m *Menu) showStats() error {
	summary, err := stats.Summarize(m.store.Records())
	if err != nil {
		return err
	}

	m.traceResult(tracing.OperationStats, "summary", summary.Total)
	m.out.Stats(summary)
	return nil
}

func (m *Menu) add() error {
	fields := country.Fields{}
	for _, f := range fieldPrompts {
		answer, err := m.input.Ask(f.label, f.validate)
		if err != nil {
			return err
		}
		fields[f.key] = answer
	}

	c, err := country.ParseRecord(fields)
	if err != nil {
		return err
	}

	if err := m.store.Append(c); err != nil {
		return err
	}

	m.logger.Info("Country added", "name", c.Name)
	m.out.Message("Added %s", c.Name)
	return nil
}

func (m *Menu) update() error {
	q, err := m.input.Ask("Country to update", requireText(country.FieldName))
	if err != nil {
		return err
	}

	current, index, err := query.FindByPartialName(m.store.Records(), q)
	if err != nil {
		return err
	}

	m.out.Country(current)
	m.out.Message("Leave a field blank to keep its value")

	fields := current.Fields()
	for _, f := range fieldPrompts {
		label := fmt.Sprintf("%s [%s]", f.label, fields[f.key])
		answer, err := m.input.Ask(label, allowBlank(f.validate))
		if err != nil {
			return err
		}
		if strings.TrimSpace(answer) != "" {
			fields[f.key] = answer
		}
	}

	updated, err := country.ParseRecord(fields)
	if err != nil {
		return err
	}

	if err := m.store.ReplaceAt(index, updated); err != nil {
		return err
	}

	m.logger.Info("Country updated", "index", index, "name", updated.Name)
	m.out.Message("Updated %s", updated.Name)
	return nil
}

func (m *Menu) summary() error {
	m.out.Summary(m.store.Records())
	return nil
}

func (m *Menu) exit() error {
	m.out.Message("Goodbye!")
	return errQuit
}

func (m *Menu) traceResult(op tracing.Operation, detail string, results int) {
	m.recorder.Record(tracing.ComponentQuery, op, tracing.LevelDebug, "", detail,
		map[string]interface{}{"results": results})
}
