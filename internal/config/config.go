package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultOutput is the file written into the project root.
	// The name matches what the artisan command writes, so projects that
	// already ignore it in VCS keep doing so.
	DefaultOutput = "ai-project-map.json"

	// DefaultFormat is the output format.
	DefaultFormat = FormatJSON

	// DefaultPHPBinary is looked up on PATH when running artisan.
	DefaultPHPBinary = "php"

	// DefaultTimeout bounds the artisan sub-process. route:list boots the
	// whole application, which can take several seconds on large projects
	// with many service providers, so the limit is generous.
	DefaultTimeout = 60 * time.Second

	// DefaultConnectTimeout bounds the ping of each candidate database
	// connection. A short value keeps the fallback search fast when the
	// default connection points at a server that is not running locally.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultModelsDir is where Eloquent models live by convention.
	DefaultModelsDir = "app/Models"

	// AppName is the application name used for XDG directory paths.
	AppName = "aimap"
)

// Output formats.
const (
	// FormatJSON writes the project map as indented JSON.
	FormatJSON = "json"
	// FormatMarkdown writes a human-readable digest of the same map.
	FormatMarkdown = "markdown"
)

// DefaultDirectories are the roots shown in the directory structure section.
// They cover the code an assistant usually needs to navigate: application
// classes, route files, configuration, migrations and Blade views.
var DefaultDirectories = []string{
	"app",
	"routes",
	"config",
	"database/migrations",
	"resources/views",
}

// Config holds all options of one map run.
// It is populated from CLI flags and the optional YAML file, validated
// once, and then passed down explicitly; no package reads global state.
//
// Design decision: like the section switches of the artisan command, each
// section is disabled individually. Sections are enabled by default, so
// the zero value of Disabled means "produce everything".
type Config struct {
	// ProjectRoot is the Laravel application directory.
	ProjectRoot string

	// Output is the file path for the map. Relative paths resolve against
	// ProjectRoot, matching base_path() in the artisan command.
	Output string

	// Compact trims every section to the information an assistant needs
	// to orient itself: column summaries, one-line routes, short class names.
	Compact bool

	// Format is FormatJSON or FormatMarkdown.
	Format string

	// PHPBinary is the interpreter used for "artisan route:list".
	PHPBinary string

	// Timeout bounds the artisan sub-process.
	Timeout time.Duration

	// ConnectTimeout bounds each database connection attempt.
	ConnectTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// Disabled holds the sections switched off with --no-<section>.
	Disabled map[Section]bool

	// Directories overrides DefaultDirectories when non-empty.
	Directories []string

	// ModelsDir is the directory scanned for Eloquent models.
	ModelsDir string

	// Exclude holds doublestar globs removed from the directory structure.
	Exclude []string

	// Connections are extra or overriding database connections from the
	// config file. They are merged with those of config/database.php.
	Connections []Connection

	// ConfigFilePath is the YAML file in use, empty when none was found.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		ProjectRoot:    ".",
		Output:         DefaultOutput,
		Format:         DefaultFormat,
		PHPBinary:      DefaultPHPBinary,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Disabled:       make(map[Section]bool),
		Directories:    slices.Clone(DefaultDirectories),
		ModelsDir:      DefaultModelsDir,
	}
}

// Enabled reports whether a section should be produced.
func (c *Config) Enabled(s Section) bool {
	return !c.Disabled[s]
}

// Disable switches a section off.
func (c *Config) Disable(s Section) {
	if c.Disabled == nil {
		c.Disabled = make(map[Section]bool)
	}
	c.Disabled[s] = true
}

// OutputPath returns the absolute output path.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	return filepath.Join(c.ProjectRoot, c.Output)
}

// XDGConfigDir returns the XDG config directory for aimap.
// On Linux: ~/.config/aimap
// On macOS: ~/Library/Application Support/aimap
// On Windows: %APPDATA%\aimap
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error, wrapped with the
// offending value where that helps the user.
func (c *Config) Validate() error {
	info, err := os.Stat(c.ProjectRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidProjectRoot, c.ProjectRoot)
	}

	if c.Output == "" {
		return ErrEmptyOutput
	}

	if c.Format != FormatJSON && c.Format != FormatMarkdown {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ConnectTimeout <= 0 {
		return ErrInvalidConnectTimeout
	}

	for s := range c.Disabled {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSection, s)
		}
	}

	for i, conn := range c.Connections {
		if conn.Name == "" || conn.Driver == "" {
			return fmt.Errorf("%w: entry %d needs a name and a driver", ErrInvalidConnection, i)
		}
	}

	return nil
}
