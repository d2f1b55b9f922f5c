package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/nao1215/aimap/internal/model"
)

// UnknownVersion is reported when the framework version cannot be found.
const UnknownVersion = "unknown"

// DefaultName is the application name Laravel falls back to.
const DefaultName = "Laravel"

var versionConstPattern = regexp.MustCompile(`const\s+VERSION\s*=\s*['"]([^'"]+)['"]`)

// ErrNoManifest is returned when composer.json does not exist.
var ErrNoManifest = errors.New("composer.json not found")

// ErrNoLock is returned when composer.lock does not exist.
var ErrNoLock = errors.New("composer.lock not found")

// Manifest reads composer.json, keeping key order.
func (p *Project) Manifest() (*model.OrderedMap, error) {
	m, err := readOrderedJSON(p.Path("composer.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoManifest
	}
	return m, err
}

// Lock reads composer.lock, keeping key order.
func (p *Project) Lock() (*model.OrderedMap, error) {
	m, err := readOrderedJSON(p.Path("composer.lock"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoLock
	}
	return m, err
}

// LockedPackage is one entry of composer.lock.
type LockedPackage struct {
	Name    string
	Version string
	Dev     bool
}

// LockedPackages lists the packages of composer.lock, runtime packages first
// and then packages-dev, each in file order.
func (p *Project) LockedPackages() ([]LockedPackage, error) {
	lock, err := p.Lock()
	if err != nil {
		return nil, err
	}
	var out []LockedPackage
	for _, section := range []string{"packages", "packages-dev"} {
		raw, _ := lock.Get(section)
		list, _ := raw.([]any)
		for _, item := range list {
			pkg, ok := item.(*model.OrderedMap)
			if !ok {
				continue
			}
			name, _ := pkg.Get("name")
			version, _ := pkg.Get("version")
			n, ok := name.(string)
			if !ok || n == "" {
				continue
			}
			v, _ := version.(string)
			out = append(out, LockedPackage{Name: n, Version: v, Dev: section == "packages-dev"})
		}
	}
	return out, nil
}

// HasPackage reports whether a composer package is required by the
// manifest, recorded in the lock file or installed under vendor/.
func (p *Project) HasPackage(name string) bool {
	if pkgs, err := p.LockedPackages(); err == nil {
		for _, pkg := range pkgs {
			if pkg.Name == name {
				return true
			}
		}
	}
	if manifest, err := p.Manifest(); err == nil {
		for _, section := range []string{"require", "require-dev"} {
			raw, _ := manifest.Get(section)
			if req, ok := raw.(*model.OrderedMap); ok && req.Has(name) {
				return true
			}
		}
	}
	return p.Exists("vendor", name)
}

// LaravelVersion returns the installed framework version. It prefers the
// lock file, then the VERSION constant of the vendored Application class,
// and reports UnknownVersion when neither is available.
func (p *Project) LaravelVersion() string {
	if pkgs, err := p.LockedPackages(); err == nil {
		for _, pkg := range pkgs {
			if pkg.Name == "laravel/framework" && pkg.Version != "" {
				return strings.TrimPrefix(pkg.Version, "v")
			}
		}
	}

	src, err := os.ReadFile(p.Path(FrameworkDir, "src", "Illuminate", "Foundation", "Application.php"))
	if err == nil {
		if m := versionConstPattern.FindSubmatch(src); m != nil {
			return string(m[1])
		}
	}
	return UnknownVersion
}

// Name returns the configured application name.
func (p *Project) Name(ctx context.Context) string {
	return p.ConfigString(ctx, "app.name", DefaultName)
}

func readOrderedJSON(path string) (*model.OrderedMap, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the project root
	if err != nil {
		return nil, err
	}
	m := model.NewOrderedMap()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return m, nil
}
