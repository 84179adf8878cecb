package main

import (
	"fmt"
	"io"
	"strings"

	"countrydb/internal/config"
	"countrydb/internal/logging"
	"countrydb/internal/menu"
	"countrydb/internal/store"
	"countrydb/internal/tracing"
)

// App bundles the process wide resources built from the configuration
type App struct {
	Logger   *logging.Logger
	Recorder *tracing.Recorder
	Store    *store.Store
}

// OpenApp sets up logging, tracing and the store. The store is not opened.
func OpenApp(cfg *config.Config) (*App, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	var logger *logging.Logger
	if cfg.Logging.File == "-" {
		logger = logging.Console(level)
	} else {
		logger = logging.File(cfg.Logging.File, true, level)
	}
	logging.Init(logger)

	var tracer tracing.Tracer = tracing.NewNoopTracer()
	if cfg.Trace.Enabled {
		ft, err := tracing.NewFileTracerWithOptions(
			tracing.WithFilePath(cfg.Trace.File),
			tracing.WithFlushInterval(cfg.Trace.FlushInterval),
			tracing.WithLevel(tracing.ParseLevel(cfg.Trace.Level)),
		)
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
		tracer = ft
	}
	recorder := tracing.NewRecorder(tracer)

	backend, err := NewBackend(cfg)
	if err != nil {
		recorder.Close()
		logger.Close()
		return nil, err
	}

	logger.Info("Application started", "config", cfg.String(), "session", recorder.SessionID())

	return &App{
		Logger:   logger,
		Recorder: recorder,
		Store:    store.New(backend, store.WithLogger(logger), store.WithRecorder(recorder)),
	}, nil
}

// NewBackend builds the configured storage backend
func NewBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Backend.Kind {
	case config.BackendCSV:
		cols := cfg.Dataset.Columns
		return store.NewCSVBackend(cfg.Dataset.Path, store.Columns{
			Name:       cols.Name,
			Continent:  cols.Continent,
			Population: cols.Population,
			Area:       cols.Area,
		}), nil
	case config.BackendSQLite:
		return store.NewSQLiteBackend(cfg.Backend.SQLitePath), nil
	case config.BackendPostgres:
		pg := cfg.Backend.Postgres
		return store.NewPgBackend(store.PgConfig{
			ConnStr:      pg.URL,
			DdlConnStr:   pg.DDLURL,
			DatasetID:    pg.DatasetID,
			MaxConns:     pg.MaxConns,
			IdleConns:    pg.IdleConns,
			ConnLifetime: pg.ConnLifetime,
		})
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
	}
}

// Close releases the store, the tracer and the log file
func (a *App) Close() error {
	var errs []string
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	a.Logger.Info("Application stopped")
	if err := a.Recorder.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := a.Logger.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	logging.Init(nil)
	if len(errs) > 0 {
		return fmt.Errorf("close: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RunMenuApp opens the dataset and runs the menu over in and out. A dataset
// that cannot be loaded is reported and the menu starts empty.
func RunMenuApp(in io.Reader, out io.Writer, cfg *config.Config) error {
	app, err := OpenApp(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	defer app.Close()

	formatter := menu.NewFormatter(out)
	report, err := app.Store.Open()
	if err != nil {
		formatter.Error(err)
		formatter.Message("Continuing with an empty dataset")
	} else {
		formatter.LoadReport(report)
	}

	m := menu.New(app.Store, menu.WithLogger(app.Logger), menu.WithRecorder(app.Recorder))
	return m.StartWithIO(in, out)
}
