package section

import (
	"context"

	"github.com/nao1215/aimap/internal/filament"
	"github.com/nao1215/aimap/internal/model"
)

// Filament reports the registered admin panels.
type Filament struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Filament) Key() string { return KeyFilament }

// Produce implements pipeline.Producer. The section is null when the
// package is not installed and when the panels cannot be enumerated.
func (f Filament) Produce(ctx context.Context) (any, error) {
	if !filament.Installed(f.env.Project) {
		return nil, nil
	}

	panels, err := f.env.Panels.Panels(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.env.Logger.Warn("could not analyze Filament structure", "error", err)
		return nil, nil
	}

	if panels == nil {
		panels = []model.Panel{}
	}
	if f.env.Compact {
		for i := range panels {
			panels[i] = panels[i].Compact()
		}
	}
	out := model.NewOrderedMap()
	out.Set("panels", panels)
	return out, nil
}
