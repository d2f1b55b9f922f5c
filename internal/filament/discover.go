package filament

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nao1215/aimap/internal/php"
)

// ErrDiscoverArgs is returned when a discover call lacks its directory or
// namespace.
var ErrDiscoverArgs = errors.New("discover call needs in and for arguments")

// family selects the classes a discover call registers.
type family struct {
	name string
	// base is the package base class, or the namespace holding the base
	// classes when it ends with a backslash.
	base string
}

var (
	familyResource = family{name: "resources", base: `Filament\Resources\Resource`}
	familyPage     = family{name: "pages", base: `Filament\Pages\`}
	familyWidget   = family{name: "widgets", base: `Filament\Widgets\`}
)

// matches reports whether parent is one of the family's base classes.
// Resource pages and widgets live below Filament\Resources too, so resources
// match their base class exactly.
func (f family) matches(parent string) bool {
	parent = strings.ToLower(strings.TrimPrefix(parent, `\`))
	base := strings.ToLower(f.base)
	if strings.HasSuffix(base, `\`) {
		return strings.HasPrefix(parent, base)
	}
	return parent == base
}

// discover scans the directory named by the in argument the way
// ->discoverResources(in:, for:) does: every concrete class below it that
// extends one of the family's base classes is registered, named after the
// for namespace and its path.
func (r *SourceRegistry) discover(ctx context.Context, args []php.Arg, fam family) ([]string, error) {
	in, namespace, ok := discoverArgs(args)
	if !ok {
		return nil, fmt.Errorf("%w: discover %s", ErrDiscoverArgs, fam.name)
	}
	if !filepath.IsAbs(in) {
		in = r.project.Path(in)
	}

	files, err := phpFiles(in)
	if err != nil {
		return nil, err
	}

	parser := r.project.Parser()
	type candidate struct {
		name  string
		class *php.Class
	}
	var candidates []candidate
	known := make(map[string]*php.Class)
	for _, path := range files {
		f, err := parser.ParseFile(ctx, path)
		if err != nil {
			return nil, err
		}
		c := f.Class()
		if c == nil {
			continue
		}
		known[strings.ToLower(c.Name)] = c

		rel, err := filepath.Rel(in, path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".php")
		name = strings.TrimSuffix(namespace, `\`) + `\` + strings.ReplaceAll(name, "/", `\`)
		candidates = append(candidates, candidate{name: name, class: c})
	}

	var out []string
	for _, cand := range candidates {
		if cand.class.Abstract || !extends(cand.class, known, fam.matches) {
			continue
		}
		out = append(out, cand.name)
	}
	return out, nil
}

// discoverArgs reads the in and for arguments, named or positional.
func discoverArgs(args []php.Arg) (in, namespace string, ok bool) {
	var inOK, forOK bool
	for i, a := range args {
		switch {
		case a.Name == "in" || (a.Name == "" && i == 0):
			in, inOK = php.StringValue(a.Value)
		case a.Name == "for" || (a.Name == "" && i == 1):
			namespace, forOK = php.StringValue(a.Value)
		}
	}
	return in, strings.TrimPrefix(namespace, `\`), inOK && forOK && in != "" && namespace != ""
}
