package section

import (
	"context"

	"github.com/nao1215/aimap/internal/database"
	"github.com/nao1215/aimap/internal/model"
)

// Schema reports the tables of the first reachable database connection.
type Schema struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Schema) Key() string { return KeyDatabaseSchema }

// Produce implements pipeline.Producer. When no connection can be opened
// the section is an empty mapping.
func (s Schema) Produce(ctx context.Context) (any, error) {
	logger := s.env.Logger
	candidates := database.ResolveConnections(ctx, s.env.Project, s.env.Connections)

	cat, conn, err := database.FirstReachable(ctx, s.env.Connector, candidates, logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error("failed to connect to any configured database, the database schema will be empty")
		return model.NewOrderedMap(), nil
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			logger.Debug("failed to close database", "connection", conn.Name, "error", cerr)
		}
	}()
	logger.Info("fetching database schema", "connection", conn.Name)

	tables, err := database.ReadSchema(ctx, cat, logger)
	if err != nil {
		logger.Warn("could not read database schema", "connection", conn.Name, "error", err)
		return model.NewOrderedMap(), nil
	}
	if !s.env.Compact {
		return tables, nil
	}
	return compactSchema(tables), nil
}

// compactSchema replaces each table with its column summaries.
func compactSchema(tables *model.OrderedMap) *model.OrderedMap {
	out := model.NewOrderedMap()
	tables.Each(func(name string, v any) bool {
		if ts, ok := v.(model.TableSchema); ok {
			out.Set(name, model.CompactColumns(ts.Columns))
		}
		return true
	})
	return out
}
