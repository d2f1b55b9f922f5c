package project

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/nao1215/aimap/internal/php"
)

//go:embed defaults/*.php
var defaultConfigs embed.FS

// FrameworkDir is the vendored framework location relative to the root.
const FrameworkDir = "vendor/laravel/framework"

var (
	// ErrRootNotFound is returned when the project root does not exist.
	ErrRootNotFound = errors.New("project root not found")

	// ErrRootNotDirectory is returned when the project root is a file.
	ErrRootNotDirectory = errors.New("project root is not a directory")
)

// Project is a Laravel application on disk.
//
// It replaces the framework's global helpers (config(), env(), base_path())
// with explicit methods, so every section producer reads the same view of
// the project without any shared global state.
//
// Design decision: configuration is read by statically evaluating the PHP
// files under config/ rather than by booting the application. Each file is
// parsed once per run and cached, and a key missing from the project's file
// falls back to the vendored framework's file and then to built-in Laravel
// defaults, which reproduces Laravel's merge of framework and application
// configuration closely enough for the handful of keys the map reports.
type Project struct {
	// Root is the absolute project root.
	Root string

	dotenv map[string]string
	logger *slog.Logger

	mu     sync.Mutex
	parser *php.Parser
	cache  map[string]*php.Array
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger used for non-fatal read problems.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Project) {
		p.logger = logger
	}
}

// Open prepares the project rooted at root. A missing .env file is not an
// error; an unreadable one is logged and ignored.
func Open(root string, opts ...Option) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, abs)
		}
		return nil, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, abs)
	}

	p := &Project{
		Root:   abs,
		dotenv: map[string]string{},
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
		cache:  make(map[string]*php.Array),
	}
	for _, opt := range opts {
		opt(p)
	}

	envFile := p.Path(".env")
	if _, err := os.Stat(envFile); err == nil {
		values, err := godotenv.Read(envFile)
		if err != nil {
			p.logger.Warn("failed to read .env file", "path", envFile, "error", err)
		} else {
			p.dotenv = values
		}
	}

	p.parser = php.NewParser(php.WithEnv(p.Env), php.WithBasePath(p.Root))
	return p, nil
}

// Path joins parts onto the project root.
func (p *Project) Path(parts ...string) string {
	return filepath.Join(append([]string{p.Root}, parts...)...)
}

// Exists reports whether the path relative to the root exists.
func (p *Project) Exists(parts ...string) bool {
	_, err := os.Stat(p.Path(parts...))
	return err == nil
}

// Parser returns a PHP parser bound to the project's environment and root.
// The returned parser must not be used concurrently with Config.
func (p *Project) Parser() *php.Parser {
	return p.parser
}

// Logger returns the project's logger.
func (p *Project) Logger() *slog.Logger {
	return p.logger
}

// Config resolves a dotted configuration key such as "app.timezone".
// The first segment names the file under config/. ok is false when no
// source defines the key.
func (p *Project) Config(ctx context.Context, key string) (any, bool) {
	file, path, _ := strings.Cut(key, ".")
	if file == "" {
		return nil, false
	}

	for _, source := range p.configSources(ctx, file) {
		if source == nil {
			continue
		}
		if path == "" {
			return source, true
		}
		if v, ok := lookup(source, strings.Split(path, ".")); ok {
			return v, true
		}
	}
	return nil, false
}

// ConfigString resolves key and returns it as a string, or def when the
// key is absent or not a scalar.
func (p *Project) ConfigString(ctx context.Context, key, def string) string {
	v, ok := p.Config(ctx, key)
	if !ok || v == nil {
		return def
	}
	if s, ok := php.StringValue(v); ok {
		return s
	}
	switch t := v.(type) {
	case bool:
		if t {
			return "1"
		}
		return ""
	case int64, float64:
		return fmt.Sprint(t)
	}
	return def
}

// configSources returns the project, vendored and built-in versions of a
// config file, any of which may be nil.
func (p *Project) configSources(ctx context.Context, file string) []*php.Array {
	name := file + ".php"
	return []*php.Array{
		p.loadConfig(ctx, "app:"+file, func() (*php.File, error) {
			return p.parser.ParseFile(ctx, p.Path("config", name))
		}),
		p.loadConfig(ctx, "vendor:"+file, func() (*php.File, error) {
			return p.parser.ParseFile(ctx, p.Path(FrameworkDir, "config", name))
		}),
		p.loadConfig(ctx, "builtin:"+file, func() (*php.File, error) {
			src, err := defaultConfigs.ReadFile("defaults/" + name)
			if err != nil {
				return nil, err
			}
			return p.parser.Parse(ctx, src)
		}),
	}
}

func (p *Project) loadConfig(_ context.Context, cacheKey string, load func() (*php.File, error)) *php.Array {
	p.mu.Lock()
	defer p.mu.Unlock()

	if arr, ok := p.cache[cacheKey]; ok {
		return arr
	}

	var arr *php.Array
	f, err := load()
	switch {
	case err != nil:
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("configuration source unavailable", "source", cacheKey, "error", err)
		}
	default:
		if a, ok := f.Return.(*php.Array); ok {
			arr = a
		} else {
			p.logger.Debug("configuration file does not return an array", "source", cacheKey)
		}
	}
	p.cache[cacheKey] = arr
	return arr
}

func lookup(arr *php.Array, path []string) (any, bool) {
	v, ok := arr.Get(path[0])
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return v, true
	}
	next, ok := v.(*php.Array)
	if !ok {
		return nil, false
	}
	return lookup(next, path[1:])
}
