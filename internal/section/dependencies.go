package section

import (
	"context"
	"errors"

	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/project"
)

// Dependencies reports the Composer requirements and, in verbose mode, the
// locked versions.
type Dependencies struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Dependencies) Key() string { return KeyComposerDependencies }

// Produce implements pipeline.Producer. A missing composer.json yields an
// empty mapping; a missing composer.lock omits installed_versions.
func (d Dependencies) Produce(_ context.Context) (any, error) {
	out := model.NewOrderedMap()

	manifest, err := d.env.Project.Manifest()
	if err != nil {
		if !errors.Is(err, project.ErrNoManifest) {
			d.env.Logger.Warn("could not read composer.json", "error", err)
		}
		return out, nil
	}
	for _, key := range []string{"require", "require-dev"} {
		v, ok := manifest.Get(key)
		if !ok || v == nil {
			v = model.NewOrderedMap()
		}
		out.Set(key, v)
	}

	if d.env.Compact {
		return out, nil
	}

	packages, err := d.env.Project.LockedPackages()
	if err != nil {
		if !errors.Is(err, project.ErrNoLock) {
			d.env.Logger.Warn("could not read composer.lock", "error", err)
		}
		return out, nil
	}
	installed := model.NewOrderedMap()
	for _, pkg := range packages {
		installed.Set(pkg.Name, pkg.Version)
	}
	out.Set("installed_versions", installed)
	return out, nil
}
