package section

import (
	"context"

	"github.com/nao1215/aimap/internal/artisan"
)

// Routes reports the application routes as artisan lists them.
type Routes struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Routes) Key() string { return KeyRoutes }

// Produce implements pipeline.Producer. Any failure yields an empty list.
func (r Routes) Produce(ctx context.Context) (any, error) {
	routes, err := artisan.ListRoutes(ctx, r.env.Runner, r.env.PHPBinary, r.env.Project.Root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.env.Logger.Warn("could not get routes", "error", err)
		return []any{}, nil
	}

	if !r.env.Compact {
		return routes, nil
	}
	lines := make([]string, len(routes))
	for i, route := range routes {
		lines[i] = route.CompactLine()
	}
	return lines, nil
}
