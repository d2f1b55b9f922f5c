package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/nao1215/aimap/internal/model"
)

// ErrNoReachableConnection is returned when every candidate failed.
var ErrNoReachableConnection = errors.New("no reachable database connection")

// Catalog reads schema metadata from one open database.
type Catalog interface {
	// Tables lists the user tables in name order.
	Tables(ctx context.Context) ([]string, error)
	// Columns lists the columns of a table in declaration order.
	Columns(ctx context.Context, table string) ([]model.Column, error)
	// Indexes lists the indexes of a table.
	Indexes(ctx context.Context, table string) ([]model.Index, error)
	// ForeignKeys lists the foreign keys of a table.
	ForeignKeys(ctx context.Context, table string) ([]model.ForeignKey, error)
	// Close releases the connection.
	Close() error
}

// Connector opens a Catalog for a connection. Implementations must verify
// the connection is usable before returning.
type Connector interface {
	Connect(ctx context.Context, c Connection) (Catalog, error)
}

// SQLConnector opens catalogs through database/sql.
type SQLConnector struct {
	// BasePath resolves relative SQLite database paths.
	BasePath string
	// Timeout bounds the initial ping.
	Timeout time.Duration
}

// Connect opens the connection and pings it once.
func (s SQLConnector) Connect(ctx context.Context, c Connection) (Catalog, error) {
	driver, dsn, err := dataSource(c, s.BasePath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c, err)
	}
	// Schema reads are strictly sequential.
	db.SetMaxOpenConns(1)

	pingCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", c, err)
	}

	switch Kind(c.Driver) {
	case "sqlite":
		return &sqliteCatalog{db: db}, nil
	case "pgsql":
		return &postgresCatalog{db: db, schema: c.Schema()}, nil
	default:
		return &mysqlCatalog{db: db, schema: c.Database}, nil
	}
}

// FirstReachable tries each candidate once, in order, and returns the first
// catalog that connects. Failures are logged as warnings.
func FirstReachable(ctx context.Context, connector Connector, candidates []Connection, logger *slog.Logger) (Catalog, Connection, error) {
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, Connection{}, err
		}
		cat, err := connector.Connect(ctx, c)
		if err != nil {
			logger.Warn("could not connect to database, trying next connection",
				"connection", c.Name, "driver", c.Driver, "error", err)
			continue
		}
		logger.Debug("connected to database", "connection", c.Name, "driver", c.Driver)
		return cat, c, nil
	}
	return nil, Connection{}, ErrNoReachableConnection
}

// ReadSchema reads every table of the catalog into an ordered map of table
// name to model.TableSchema. A table whose metadata cannot be read is
// logged and skipped.
func ReadSchema(ctx context.Context, cat Catalog, logger *slog.Logger) (*model.OrderedMap, error) {
	tables, err := cat.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	out := model.NewOrderedMap()
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts, err := readTable(ctx, cat, table)
		if err != nil {
			logger.Warn("failed to read table metadata", "table", table, "error", err)
			continue
		}
		out.Set(table, ts)
	}
	return out, nil
}

func readTable(ctx context.Context, cat Catalog, table string) (model.TableSchema, error) {
	columns, err := cat.Columns(ctx, table)
	if err != nil {
		return model.TableSchema{}, fmt.Errorf("columns: %w", err)
	}
	indexes, err := cat.Indexes(ctx, table)
	if err != nil {
		return model.TableSchema{}, fmt.Errorf("indexes: %w", err)
	}
	fks, err := cat.ForeignKeys(ctx, table)
	if err != nil {
		return model.TableSchema{}, fmt.Errorf("foreign keys: %w", err)
	}
	return model.TableSchema{
		Columns:     nonNil(columns),
		Indexes:     nonNil(indexes),
		ForeignKeys: nonNil(fks),
	}, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// splitList splits a comma separated aggregate, returning an empty list for
// an empty string.
func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// nullable converts a sql.NullString to the optional string of the model.
func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return model.StringPtr(ns.String)
}
