package filament

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/php"
	"github.com/nao1215/aimap/internal/project"
)

// Package is the Composer package that provides admin panels.
const Package = "filament/filament"

// PanelProvider is the base class of every panel provider.
const PanelProvider = `Filament\PanelProvider`

// ProvidersDir is where panel providers live, relative to the project root.
const ProvidersDir = "app/Providers"

var (
	// ErrNoPanelID is returned when a panel chain never calls ->id().
	ErrNoPanelID = errors.New("panel has no id")

	// ErrProviderSyntax is returned when a panel provider does not parse.
	ErrProviderSyntax = errors.New("panel provider could not be parsed")
)

// Registry lists the admin panels an application registers.
type Registry interface {
	Panels(ctx context.Context) ([]model.Panel, error)
}

// Installed reports whether the project depends on the admin panel package.
func Installed(p *project.Project) bool {
	return p.HasPackage(Package)
}

// SourceRegistry recovers panels from the panel provider source files.
type SourceRegistry struct {
	project *project.Project
}

// NewSourceRegistry returns a Registry reading the providers of p.
func NewSourceRegistry(p *project.Project) *SourceRegistry {
	return &SourceRegistry{project: p}
}

// Panels parses every PanelProvider subclass below app/Providers and
// evaluates its panel() chain. Providers are visited in file name order.
func (r *SourceRegistry) Panels(ctx context.Context) ([]model.Panel, error) {
	dir := r.project.Path(ProvidersDir)
	files, err := phpFiles(dir)
	if err != nil {
		return nil, err
	}

	parser := r.project.Parser()
	var providers []*php.Class
	known := make(map[string]*php.Class)
	for _, path := range files {
		f, err := parser.ParseFile(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := f.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderSyntax, err)
		}
		for _, c := range f.Classes {
			known[strings.ToLower(c.Name)] = c
			providers = append(providers, c)
		}
	}

	panels := []model.Panel{}
	for _, c := range providers {
		if c.Abstract || !extends(c, known, func(parent string) bool { return strings.EqualFold(parent, PanelProvider) }) {
			continue
		}
		m, ok := c.Method("panel")
		if !ok {
			continue
		}
		panel, err := r.evaluate(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		panels = append(panels, panel)
	}
	return panels, nil
}

// evaluate replays the configuration calls made on the panel builder.
func (r *SourceRegistry) evaluate(ctx context.Context, m *php.Method) (model.Panel, error) {
	var (
		panel                     = model.Panel{}
		hasID                     bool
		resources, pages, widgets classList
	)

	for _, call := range m.Calls {
		if !onBuilder(call.Object) {
			continue
		}
		switch strings.ToLower(call.Name) {
		case "id":
			if s, ok := firstString(call.Args); ok {
				panel.ID = s
				hasID = true
			}
		case "path":
			if s, ok := firstString(call.Args); ok {
				panel.Path = s
			}
		case "resources":
			resources.addArray(call.Args)
		case "pages":
			pages.addArray(call.Args)
		case "widgets":
			widgets.addArray(call.Args)
		case "discoverresources":
			found, err := r.discover(ctx, call.Args, familyResource)
			if err != nil {
				return panel, err
			}
			resources.add(found...)
		case "discoverpages":
			found, err := r.discover(ctx, call.Args, familyPage)
			if err != nil {
				return panel, err
			}
			pages.add(found...)
		case "discoverwidgets":
			found, err := r.discover(ctx, call.Args, familyWidget)
			if err != nil {
				return panel, err
			}
			widgets.add(found...)
		}
	}

	if !hasID {
		return panel, ErrNoPanelID
	}
	panel.Resources = resources.list()
	panel.Pages = pages.list()
	panel.Widgets = widgets.list()
	return panel, nil
}

// onBuilder reports whether a call is made on a variable, as the panel
// chain is, rather than on a class or on a value built inside an argument.
func onBuilder(object string) bool {
	root := object
	if i := strings.Index(root, "->"); i >= 0 {
		root = root[:i]
	}
	root = strings.TrimSuffix(strings.TrimSpace(root), "?")
	return strings.HasPrefix(root, "$") && root != "$this"
}

func firstString(args []php.Arg) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	return php.StringValue(args[0].Value)
}

// classList keeps class names unique in registration order.
type classList struct {
	names []string
	seen  map[string]bool
}

func (l *classList) add(names ...string) {
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	for _, n := range names {
		n = strings.TrimPrefix(n, `\`)
		if n == "" || l.seen[n] {
			continue
		}
		l.seen[n] = true
		l.names = append(l.names, n)
	}
}

func (l *classList) addArray(args []php.Arg) {
	if len(args) == 0 {
		return
	}
	if arr, ok := args[0].Value.(*php.Array); ok {
		l.add(arr.Strings()...)
	}
}

func (l *classList) list() []string {
	if l.names == nil {
		return []string{}
	}
	return l.names
}

// extends reports whether c, or one of its ancestors among known, has a
// parent accepted by match.
func extends(c *php.Class, known map[string]*php.Class, match func(parent string) bool) bool {
	for depth := 0; c != nil && depth < 32; depth++ {
		if c.Extends == "" {
			return false
		}
		if match(c.Extends) {
			return true
		}
		c = known[strings.ToLower(c.Extends)]
	}
	return false
}

// phpFiles lists the .php files below dir in name order. A missing
// directory has no files.
func phpFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.php", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	slices.Sort(matches)
	paths := make([]string, len(matches))
	for i, rel := range matches {
		paths[i] = filepath.Join(dir, filepath.FromSlash(rel))
	}
	return paths, nil
}
