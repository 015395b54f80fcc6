package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/RakanEX/finance-db-pyscript/internal/config"
	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/id"
	"github.com/RakanEX/finance-db-pyscript/internal/logger"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
	"github.com/RakanEX/finance-db-pyscript/internal/report"
	"github.com/RakanEX/finance-db-pyscript/internal/store"
)

const configFileName = config.FileName

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	logLevel   string
	logJSON    bool
	directory  bool
}

// storeFlags select where facts are written.
type storeFlags struct {
	db    string
	table string
}

// session is the resolved runtime shared by ingest, import, mapping and export.
type session struct {
	baseDir string
	cfg     *config.Config
	log     zerolog.Logger
	runID   string
	started time.Time
}

func newSession(g *globalFlags, stderr io.Writer) (*session, error) {
	baseDir := "."
	if g.directory {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating executable: %w", err)
		}
		baseDir = filepath.Dir(exe)
	}

	if err := config.LoadDotEnv(filepath.Join(baseDir, ".env")); err != nil {
		return nil, err
	}

	cfgPath := g.configPath
	if cfgPath == "" {
		cfgPath = configFileName
	}
	cfg, err := config.LoadOrDefault(resolve(baseDir, cfgPath))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	level := g.logLevel
	if level == "" && !g.verbose {
		level = cfg.Logging.Level
	}
	lvl, err := logger.ParseLevel(level, g.verbose)
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	runID := id.NewRunID(started)
	log := logger.New(stderr, lvl)
	if g.logJSON {
		log = logger.NewJSON(stderr, lvl)
	}
	log = logger.WithRun(log, runID)

	s := &session{baseDir: baseDir, cfg: cfg, log: log, runID: runID, started: started}
	log.Info().Str("dir", baseDir).Msg("session started")
	return s, nil
}

// context attaches the run logger to ctx.
func (s *session) context(ctx context.Context) context.Context {
	return logger.WithContext(ctx, s.log)
}

// resolve makes p relative to base unless it is absolute.
func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// variant returns the flag value, or the configured default.
func (s *session) variant(flag string) (model.Variant, error) {
	if flag == "" {
		flag = s.cfg.Ingest.Variant
	}
	return model.ParseVariant(flag)
}

// mapping loads the entity mapping. A missing default file is silent; any
// other problem is logged and the built-in mapping is used.
func (s *session) mapping(flag string) *entities.Mapping {
	path := flag
	if path == "" {
		path = s.cfg.Ingest.MappingFile
	}
	if path == "" {
		return entities.Defaults()
	}

	m, err := entities.Load(resolve(s.baseDir, path))
	switch {
	case err == nil:
	case flag == "" && errors.Is(err, os.ErrNotExist):
	case entities.IsLoadError(err):
		s.log.Warn().Err(err).Msg("using built-in entity mapping")
	default:
		s.log.Error().Err(err).Msg("using built-in entity mapping")
	}
	return m
}

// options builds the pipeline options for this run.
func (s *session) options(scenario, mappingFlag string) report.Options {
	if scenario == "" {
		scenario = s.cfg.Ingest.Scenario
	}
	started := s.started
	return report.Options{
		Scenario: scenario,
		Mapping:  s.mapping(mappingFlag),
		Now:      func() time.Time { return started },
	}
}

// openStore connects to the --db target or the configured Postgres database,
// prompting for a password on a terminal when none is configured.
func (s *session) openStore(ctx context.Context, f storeFlags, stdin *os.File, prompt io.Writer) (store.Store, error) {
	table := f.table
	if table == "" {
		table = s.cfg.Database.TableName()
	}

	dsn := f.db
	if dsn == "" {
		if err := s.cfg.Database.PromptPassword(stdin, prompt); err != nil {
			return nil, err
		}
		dsn = s.cfg.Database.DSN()
	} else {
		backend, target, err := store.ParseDSN(dsn)
		if err != nil {
			return nil, err
		}
		if backend != store.BackendPostgres && target != ":memory:" {
			dsn = string(backend) + ":" + resolve(s.baseDir, target)
		}
	}

	s.log.Info().Str("db", store.Redact(dsn)).Str("table", table).Msg("opening store")
	st, err := store.Open(ctx, dsn, table)
	if err != nil {
		s.log.Error().Err(err).Str("db", store.Redact(dsn)).Msg("cannot open store")
		return nil, err
	}
	return st, nil
}
