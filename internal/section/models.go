package section

import (
	"context"
	"path/filepath"

	"github.com/nao1215/aimap/internal/eloquent"
	"github.com/nao1215/aimap/internal/model"
)

// Models reports the Eloquent models below the models directory.
type Models struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Models) Key() string { return KeyModels }

// Produce implements pipeline.Producer.
func (m Models) Produce(ctx context.Context) (any, error) {
	dir := m.env.Project.Path(filepath.FromSlash(m.env.ModelsDir))
	scanner := eloquent.NewScanner(m.env.Project.Parser(), m.env.Logger)

	descriptors, err := scanner.Scan(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.env.Logger.Warn("could not analyze models", "path", dir, "error", err)
		return []model.ModelDescriptor{}, nil
	}
	return descriptors, nil
}
