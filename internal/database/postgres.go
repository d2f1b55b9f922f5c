package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nao1215/aimap/internal/model"
)

// postgresCatalog reads metadata from pg_catalog for one schema, using the
// same queries Laravel's PostgreSQL schema grammar uses.
type postgresCatalog struct {
	db     *sql.DB
	schema string
}

const pgTablesQuery = `SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = $1 ORDER BY tablename`

const pgColumnsQuery = `SELECT a.attname, t.typname, format_type(a.atttypid, a.atttypmod),
	(SELECT tc.collcollate FROM pg_catalog.pg_collation tc WHERE tc.oid = a.attcollation),
	NOT a.attnotnull,
	(SELECT pg_get_expr(adbin, adrelid) FROM pg_attrdef WHERE c.oid = pg_attrdef.adrelid AND pg_attrdef.adnum = a.attnum),
	col_description(c.oid, a.attnum)
FROM pg_attribute a, pg_class c, pg_type t, pg_namespace n
WHERE c.relname = $1 AND n.nspname = $2 AND a.attnum > 0 AND a.attrelid = c.oid
	AND a.atttypid = t.oid AND n.oid = c.relnamespace AND NOT a.attisdropped
ORDER BY a.attnum`

const pgIndexesQuery = `SELECT ic.relname, string_agg(a.attname, ',' ORDER BY indseq.ord), am.amname,
	i.indisunique, i.indisprimary
FROM pg_index i
JOIN pg_class tc ON tc.oid = i.indrelid
JOIN pg_namespace tn ON tn.oid = tc.relnamespace
JOIN pg_class ic ON ic.oid = i.indexrelid
JOIN pg_am am ON am.oid = ic.relam
JOIN LATERAL unnest(i.indkey) WITH ORDINALITY AS indseq(num, ord) ON true
LEFT JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = indseq.num
WHERE tc.relname = $1 AND tn.nspname = $2
GROUP BY ic.relname, am.amname, i.indisunique, i.indisprimary
ORDER BY ic.relname`

const pgForeignKeysQuery = `SELECT c.conname, string_agg(la.attname, ',' ORDER BY conseq.ord), fn.nspname, fc.relname,
	string_agg(fa.attname, ',' ORDER BY conseq.ord), c.confupdtype, c.confdeltype
FROM pg_constraint c
JOIN pg_class tc ON c.conrelid = tc.oid
JOIN pg_namespace tn ON tn.oid = tc.relnamespace
JOIN pg_class fc ON c.confrelid = fc.oid
JOIN pg_namespace fn ON fn.oid = fc.relnamespace
JOIN LATERAL unnest(c.conkey) WITH ORDINALITY AS conseq(num, ord) ON true
JOIN LATERAL unnest(c.confkey) WITH ORDINALITY AS confseq(num, ord) ON conseq.ord = confseq.ord
JOIN pg_attribute la ON la.attrelid = c.conrelid AND la.attnum = conseq.num
JOIN pg_attribute fa ON fa.attrelid = c.confrelid AND fa.attnum = confseq.num
WHERE c.contype = 'f' AND tc.relname = $1 AND tn.nspname = $2
GROUP BY c.conname, fn.nspname, fc.relname, c.confupdtype, c.confdeltype
ORDER BY c.conname`

// pgActions decodes pg_constraint action codes.
var pgActions = map[string]string{
	"a": "no action",
	"r": "restrict",
	"c": "cascade",
	"n": "set null",
	"d": "set default",
}

func (p *postgresCatalog) Close() error {
	return p.db.Close()
}

func (p *postgresCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, pgTablesQuery, p.schema)
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

func (p *postgresCatalog) Columns(ctx context.Context, table string) ([]model.Column, error) {
	rows, err := p.db.QueryContext(ctx, pgColumnsQuery, table, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Column
	for rows.Next() {
		var (
			c                   model.Column
			collation, def, cmt sql.NullString
		)
		if err := rows.Scan(&c.Name, &c.TypeName, &c.Type, &collation, &c.Nullable, &def, &cmt); err != nil {
			return nil, err
		}
		c.TypeName = strings.ToLower(c.TypeName)
		c.Collation = nullable(collation)
		c.Default = nullable(def)
		c.Comment = nullable(cmt)
		c.AutoIncrement = def.Valid && strings.HasPrefix(def.String, "nextval(")
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *postgresCatalog) Indexes(ctx context.Context, table string) ([]model.Index, error) {
	rows, err := p.db.QueryContext(ctx, pgIndexesQuery, table, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Index
	for rows.Next() {
		var (
			idx          model.Index
			columns, typ sql.NullString
		)
		if err := rows.Scan(&idx.Name, &columns, &typ, &idx.Unique, &idx.Primary); err != nil {
			return nil, err
		}
		idx.Name = strings.ToLower(idx.Name)
		idx.Columns = splitList(columns.String)
		if typ.Valid {
			idx.Type = model.StringPtr(strings.ToLower(typ.String))
		}
		out = append(out, idx)
	}
	return out, rows.Err()
}

func (p *postgresCatalog) ForeignKeys(ctx context.Context, table string) ([]model.ForeignKey, error) {
	rows, err := p.db.QueryContext(ctx, pgForeignKeysQuery, table, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ForeignKey
	for rows.Next() {
		var (
			name, schema, columns, foreignColumns string
			fk                                    model.ForeignKey
			onUpdate, onDelete                    string
		)
		if err := rows.Scan(&name, &columns, &schema, &fk.ForeignTable, &foreignColumns, &onUpdate, &onDelete); err != nil {
			return nil, err
		}
		fk.Name = model.StringPtr(name)
		fk.ForeignSchema = model.StringPtr(schema)
		fk.Columns = splitList(columns)
		fk.ForeignColumns = splitList(foreignColumns)
		fk.OnUpdate = pgActions[strings.ToLower(onUpdate)]
		fk.OnDelete = pgActions[strings.ToLower(onDelete)]
		out = append(out, fk)
	}
	return out, rows.Err()
}
