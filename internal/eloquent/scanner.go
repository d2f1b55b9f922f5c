package eloquent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/php"
)

// Base classes an Eloquent model can extend directly.
const (
	BaseModel      = `Illuminate\Database\Eloquent\Model`
	BaseUser       = `Illuminate\Foundation\Auth\User`
	BasePivot      = `Illuminate\Database\Eloquent\Relations\Pivot`
	BaseMorphPivot = `Illuminate\Database\Eloquent\Relations\MorphPivot`
)

// Scanner reads model classes from PHP source files.
type Scanner struct {
	parser *php.Parser
	logger *slog.Logger
}

// NewScanner returns a Scanner that parses with parser and reports skipped
// files and methods to logger.
func NewScanner(parser *php.Parser, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{parser: parser, logger: logger}
}

// Scan describes every concrete model class found below dir, in file name
// order. A missing directory yields an empty list.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]model.ModelDescriptor, error) {
	descriptors := []model.ModelDescriptor{}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return descriptors, nil
		}
		return nil, fmt.Errorf("failed to stat models directory: %w", err)
	}
	if !info.IsDir() {
		return descriptors, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.php", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list models directory: %w", err)
	}
	slices.Sort(matches)

	classes := make(map[string]*php.Class)
	var order []*php.Class
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, filepath.FromSlash(rel))
		file, err := s.parser.ParseFile(ctx, path)
		if err != nil {
			s.logger.Warn("could not analyze model file", "path", path, "error", err)
			continue
		}
		if err := file.Err(); err != nil {
			s.logger.Warn("model file has syntax errors", "path", path, "error", err)
			continue
		}
		for _, c := range file.Classes {
			if c.Name == "" {
				continue
			}
			classes[strings.ToLower(c.Name)] = c
			order = append(order, c)
		}
	}

	h := hierarchy{classes: classes}
	for _, c := range order {
		if c.Abstract || !h.isModel(c) {
			continue
		}
		descriptors = append(descriptors, s.describe(h, c))
	}
	return descriptors, nil
}

// describe reads the metadata Eloquent would report for c.
func (s *Scanner) describe(h hierarchy, c *php.Class) model.ModelDescriptor {
	d := model.ModelDescriptor{
		Class:         c.Name,
		Table:         h.table(c),
		Fillable:      h.stringList(c, "fillable", []string{}),
		Guarded:       h.stringList(c, "guarded", []string{"*"}),
		Hidden:        h.stringList(c, "hidden", []string{}),
		Casts:         h.casts(c),
		Relationships: model.NewOrderedMap(),
	}

	for _, m := range c.Methods {
		if m.Visibility != "public" || m.Static || m.Abstract || m.Params > 0 {
			continue
		}
		relType, ok := RelationType(m.ReturnType)
		if !ok {
			continue
		}
		related, ok := relatedModel(c, m)
		if !ok {
			s.logger.Warn("could not resolve related model", "model", c.Name, "method", m.Name)
			continue
		}
		d.Relationships.Set(m.Name, model.Relationship{Type: relType, RelatedModel: related})
	}
	return d
}

// relationTypes are the relation classes a model method can return.
var relationTypes = map[string]bool{
	"HasOne":         true,
	"HasMany":        true,
	"BelongsTo":      true,
	"BelongsToMany":  true,
	"MorphTo":        true,
	"MorphOne":       true,
	"MorphMany":      true,
	"MorphToMany":    true,
	"HasOneThrough":  true,
	"HasManyThrough": true,
}

// relationFactories are the Model helper methods that build relations.
var relationFactories = map[string]bool{
	"hasone":         true,
	"hasmany":        true,
	"belongsto":      true,
	"belongstomany":  true,
	"morphto":        true,
	"morphone":       true,
	"morphmany":      true,
	"morphtomany":    true,
	"morphedbymany":  true,
	"hasonethrough":  true,
	"hasmanythrough": true,
}

// RelationNamespace holds Eloquent's relation classes.
const RelationNamespace = `Illuminate\Database\Eloquent\Relations\`

// RelationType returns the short relation class name when the resolved
// returnType is one of Eloquent's relation classes. Classes elsewhere that
// share a short name are not relations.
func RelationType(returnType string) (string, bool) {
	t := strings.TrimPrefix(strings.TrimPrefix(returnType, "?"), `\`)
	if t == "" || strings.ContainsAny(t, "|&") {
		return "", false
	}
	if len(t) <= len(RelationNamespace) || !strings.EqualFold(t[:len(RelationNamespace)], RelationNamespace) {
		return "", false
	}
	short := t[len(RelationNamespace):]
	if !relationTypes[short] {
		return "", false
	}
	return short, true
}

// relatedModel finds the first relation factory called on $this and returns
// its related class. morphTo relates to the declaring model.
func relatedModel(c *php.Class, m *php.Method) (string, bool) {
	for _, call := range m.Calls {
		if call.Object != "$this" || !relationFactories[strings.ToLower(call.Name)] {
			continue
		}
		if strings.EqualFold(call.Name, "morphTo") {
			return c.Name, true
		}
		if len(call.Args) == 0 {
			return "", false
		}
		name, ok := php.StringValue(call.Args[0].Value)
		if !ok || name == "" {
			return "", false
		}
		return strings.TrimPrefix(name, `\`), true
	}
	return "", false
}
