package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/aimap/internal/config"
	"github.com/nao1215/aimap/internal/log"
	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/pipeline"
	"github.com/nao1215/aimap/internal/project"
	"github.com/nao1215/aimap/internal/report"
	"github.com/nao1215/aimap/internal/section"
)

// NewMapCmd creates the map command.
func NewMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [project-root]",
		Short: "Generate the project map of a Laravel application",
		Long: `Map analyzes a Laravel application and writes one JSON document that
describes it:
- Environment and driver settings
- Database schema of the first reachable connection
- Directory structure of app, routes, config, migrations and views
- Eloquent models with casts and relationships
- Routes as listed by "php artisan route:list"
- Composer dependencies and installed versions
- Filament panels, scheduled commands and event listeners

Sections that cannot be produced are left empty and reported as warnings;
the map is always written.

Examples:
  # Map the project in the current directory
  aimap map

  # Map another project, compact, without touching the database
  aimap map ../shop --compact --no-db

  # Write a Markdown digest instead of JSON
  aimap map -f markdown -o docs/project-map.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMapCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutput,
		"Output file; relative paths resolve against the project root")
	cmd.Flags().Bool("compact", false,
		"Generate a compact map with summaries only")
	for _, s := range config.AllSections() {
		cmd.Flags().Bool(s.Flag(), false, "Exclude "+s.Description())
	}

	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: json or markdown")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .aimap.yaml in the project, current or home directory)")
	cmd.Flags().String("php", config.DefaultPHPBinary,
		"PHP binary used to run artisan")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for the artisan sub-process")
	cmd.Flags().Duration("connect-timeout", config.DefaultConnectTimeout,
		"Timeout for each database connection attempt")

	return cmd
}

// runMapCmd executes the map command.
func runMapCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runMap(ctx, cfg, newConsole(cmd.OutOrStdout()), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the command line and the optional
// configuration file. Flags set explicitly win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.ProjectRoot = args[0]
	}
	if abs, err := filepath.Abs(cfg.ProjectRoot); err == nil {
		cfg.ProjectRoot = abs
	}

	var err error
	if cfg.Output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Compact, err = flags.GetBool("compact"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.PHPBinary, err = flags.GetString("php"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = flags.GetDuration("connect-timeout"); err != nil {
		return nil, err
	}
	for _, s := range config.AllSections() {
		off, err := flags.GetBool(s.Flag())
		if err != nil {
			return nil, err
		}
		if off {
			cfg.Disable(s)
		}
	}
	cfg.Verbose = getVerboseFlag(cmd)

	explicit, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	path, err := config.FindConfigFile(explicit, cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := cfg.Apply(file, flags.Changed); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ConfigFilePath = path
	return cfg, nil
}

// runMap produces every enabled section and writes the map. Only an
// unreadable project root, an interruption or a failed write is an error.
func runMap(ctx context.Context, cfg *config.Config, con *console, logger *slog.Logger) error {
	con.info("Generating AI project map...")
	if cfg.ConfigFilePath != "" {
		logger.Debug("using configuration file", "path", cfg.ConfigFilePath)
	}

	p, err := project.Open(cfg.ProjectRoot, project.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if !p.Exists("artisan") && !p.Exists("composer.json") {
		con.warn("%s does not look like a Laravel project; most sections will be empty.", cfg.ProjectRoot)
	}

	m := model.NewProjectMap(p.Name(ctx), p.LaravelVersion())

	env := section.NewEnv(p, cfg, logger)
	pl := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
		pipeline.WithProgress(func(step string) {
			con.line("Mapping %s...", con.accent.Sprint(step))
		}),
	)
	pl.AddSteps(section.Steps(env, cfg.Enabled)...)
	logger.Debug("sections enabled", "sections", pl.StepNames())

	start := time.Now()
	if err := pl.Execute(ctx, m); err != nil {
		if errors.Is(err, context.Canceled) {
			con.errorf("Interrupted; no project map was written.")
		}
		return err
	}

	path := cfg.OutputPath()
	size, err := report.WriteFile(path, cfg.Format, m)
	if err != nil {
		con.errorf("Could not write the project map: %v", err)
		return err
	}

	con.info("Project map successfully generated at: %s (%s in %s)",
		path, humanize.Bytes(uint64(size)), time.Since(start).Round(time.Millisecond)) //nolint:gosec // size is never negative
	if cfg.Verbose {
		if _, err := report.NewSummaryWriter(con.out).Write(m); err != nil {
			logger.Debug("failed to print summary", "error", err)
		}
	}
	return nil
}
