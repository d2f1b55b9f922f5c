package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/aimap/internal/model"
)

// sqliteCatalog reads metadata through SQLite PRAGMA statements, mirroring
// what Laravel's SQLite schema grammar reports.
type sqliteCatalog struct {
	db *sql.DB
}

func (s *sqliteCatalog) Close() error {
	return s.db.Close()
}

func (s *sqliteCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *sqliteCatalog) Columns(ctx context.Context, table string) ([]model.Column, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pragmaColumn struct {
		name     string
		typ      string
		notNull  bool
		dflt     sql.NullString
		pkOrder  int
		typeName string
	}

	var (
		cols       []pragmaColumn
		primaryCnt int
	)
	for rows.Next() {
		var (
			cid     int
			c       pragmaColumn
			notNull int
		)
		if err := rows.Scan(&cid, &c.name, &c.typ, &notNull, &c.dflt, &c.pkOrder); err != nil {
			return nil, err
		}
		c.notNull = notNull != 0
		c.typ = strings.ToLower(c.typ)
		c.typeName, _, _ = strings.Cut(c.typ, "(")
		c.typeName = strings.TrimSpace(c.typeName)
		if c.pkOrder > 0 {
			primaryCnt++
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, model.Column{
			Name:     c.name,
			TypeName: c.typeName,
			Type:     c.typ,
			Nullable: !c.notNull,
			Default:  nullable(c.dflt),
			// A single INTEGER primary key is an alias of the rowid.
			AutoIncrement: primaryCnt == 1 && c.pkOrder > 0 && c.typeName == "integer",
		})
	}
	return out, nil
}

func (s *sqliteCatalog) Indexes(ctx context.Context, table string) ([]model.Index, error) {
	var out []model.Index

	// The rowid primary key has no entry in index_list.
	cols, err := s.primaryKeyColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		out = append(out, model.Index{Name: "primary", Columns: cols, Unique: true, Primary: true})
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteSQLite(table)))
	if err != nil {
		return nil, err
	}
	type entry struct {
		name    string
		unique  bool
		primary bool
	}
	var entries []entry
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, entry{name: name, unique: unique != 0, primary: origin == "pk"})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, e := range entries {
		columns, err := s.indexColumns(ctx, e.name)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Index{
			Name:    strings.ToLower(e.name),
			Columns: columns,
			Unique:  e.unique,
			Primary: e.primary,
		})
	}
	return out, nil
}

func (s *sqliteCatalog) primaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type keyPart struct {
		order int
		name  string
	}
	var parts []keyPart
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			parts = append(parts, keyPart{order: pk, name: name})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(parts, func(a, b keyPart) int { return a.order - b.order })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.name)
	}
	return out, nil
}

func (s *sqliteCatalog) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteSQLite(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

func (s *sqliteCatalog) ForeignKeys(ctx context.Context, table string) ([]model.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLite(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		order []int
		byID  = map[int]*model.ForeignKey{}
	)
	for rows.Next() {
		var (
			id, seq         int
			foreignTable    string
			from            string
			to              sql.NullString
			onUpdate, onDel string
			match           string
		)
		if err := rows.Scan(&id, &seq, &foreignTable, &from, &to, &onUpdate, &onDel, &match); err != nil {
			return nil, err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &model.ForeignKey{
				Columns:        []string{},
				ForeignTable:   foreignTable,
				ForeignColumns: []string{},
				OnUpdate:       strings.ToLower(onUpdate),
				OnDelete:       strings.ToLower(onDel),
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		if to.Valid {
			fk.ForeignColumns = append(fk.ForeignColumns, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// PRAGMA lists constraints newest first; report them in declaration order.
	out := make([]model.ForeignKey, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, *byID[order[i]])
	}
	return out, nil
}

// quoteSQLite quotes an identifier for use in a PRAGMA statement.
func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
