package section

import (
	"log/slog"

	"github.com/nao1215/aimap/internal/artisan"
	"github.com/nao1215/aimap/internal/config"
	"github.com/nao1215/aimap/internal/database"
	"github.com/nao1215/aimap/internal/events"
	"github.com/nao1215/aimap/internal/filament"
	"github.com/nao1215/aimap/internal/pipeline"
	"github.com/nao1215/aimap/internal/project"
)

// Section keys of the project map, in output order.
const (
	KeyEnvironment          = "environment"
	KeyDatabaseSchema       = "databaseSchema"
	KeyDirectoryStructure   = "directoryStructure"
	KeyModels               = "models"
	KeyRoutes               = "routes"
	KeyComposerDependencies = "composerDependencies"
	KeyFilament             = "filament"
	KeyScheduledCommands    = "scheduledCommands"
	KeyEventListeners       = "eventListeners"
)

// Env is everything a producer may read. It is built once per run and
// replaces the framework globals the artisan command relies on.
type Env struct {
	Project *project.Project
	Compact bool
	Logger  *slog.Logger

	// Connector opens database catalogs; Connections are extra candidates
	// from the configuration file.
	Connector   database.Connector
	Connections []config.Connection

	// Runner starts the artisan sub-process with PHPBinary.
	Runner    artisan.Runner
	PHPBinary string

	// Directories are the roots of the directory structure, Exclude the
	// globs removed from it.
	Directories []string
	Exclude     []string

	// ModelsDir is the Eloquent models directory relative to the root.
	ModelsDir string

	Panels    filament.Registry
	Listeners events.ListenerProvider
}

// NewEnv returns an Env for p configured from cfg, with the real database
// connector, artisan runner, panel registry and listener provider.
func NewEnv(p *project.Project, cfg *config.Config, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{
		Project:     p,
		Compact:     cfg.Compact,
		Logger:      logger,
		Connector:   database.SQLConnector{BasePath: p.Root, Timeout: cfg.ConnectTimeout},
		Connections: cfg.Connections,
		Runner:      artisan.CommandRunner{Timeout: cfg.Timeout},
		PHPBinary:   cfg.PHPBinary,
		Directories: cfg.Directories,
		Exclude:     cfg.Exclude,
		ModelsDir:   cfg.ModelsDir,
		Panels:      filament.NewSourceRegistry(p),
		Listeners:   events.NewSourceProvider(p),
	}
}

// Producers returns the producers of every section enabled reports true
// for, in output order.
func Producers(env *Env, enabled func(config.Section) bool) []pipeline.Producer {
	all := []struct {
		section  config.Section
		producer pipeline.Producer
	}{
		{config.SectionEnv, Environment{env: env}},
		{config.SectionDB, Schema{env: env}},
		{config.SectionFiles, Tree{env: env}},
		{config.SectionModels, Models{env: env}},
		{config.SectionRoutes, Routes{env: env}},
		{config.SectionDeps, Dependencies{env: env}},
		{config.SectionFilament, Filament{env: env}},
		{config.SectionSchedule, Schedule{env: env}},
		{config.SectionEvents, Events{env: env}},
	}

	out := make([]pipeline.Producer, 0, len(all))
	for _, a := range all {
		if enabled(a.section) {
			out = append(out, a.producer)
		}
	}
	return out
}

// Steps wraps Producers into pipeline steps.
func Steps(env *Env, enabled func(config.Section) bool) []pipeline.Step {
	producers := Producers(env, enabled)
	steps := make([]pipeline.Step, len(producers))
	for i, p := range producers {
		steps[i] = pipeline.NewSectionStep(p, pipeline.WithSectionLogger(env.Logger))
	}
	return steps
}
