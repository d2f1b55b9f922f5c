package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nao1215/aimap/internal/model"
)

// mysqlCatalog reads metadata from information_schema for one database.
// MySQL and MariaDB share it.
type mysqlCatalog struct {
	db     *sql.DB
	schema string
}

const mysqlTablesQuery = "SELECT table_name FROM information_schema.tables " +
	"WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) " +
	"AND table_type IN ('BASE TABLE', 'SYSTEM VERSIONED') ORDER BY table_name"

const mysqlColumnsQuery = "SELECT column_name, data_type, column_type, collation_name, is_nullable, " +
	"column_default, column_comment, extra FROM information_schema.columns " +
	"WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ? ORDER BY ordinal_position"

const mysqlIndexesQuery = "SELECT index_name, GROUP_CONCAT(column_name ORDER BY seq_in_index), index_type, NOT non_unique " +
	"FROM information_schema.statistics " +
	"WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ? " +
	"GROUP BY index_name, index_type, non_unique ORDER BY index_name"

const mysqlForeignKeysQuery = "SELECT kc.constraint_name, GROUP_CONCAT(kc.column_name ORDER BY kc.ordinal_position), " +
	"kc.referenced_table_schema, kc.referenced_table_name, " +
	"GROUP_CONCAT(kc.referenced_column_name ORDER BY kc.ordinal_position), rc.update_rule, rc.delete_rule " +
	"FROM information_schema.key_column_usage kc " +
	"JOIN information_schema.referential_constraints rc " +
	"ON kc.constraint_schema = rc.constraint_schema AND kc.constraint_name = rc.constraint_name " +
	"WHERE kc.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND kc.table_name = ? " +
	"AND kc.referenced_table_name IS NOT NULL " +
	"GROUP BY kc.constraint_name, kc.referenced_table_schema, kc.referenced_table_name, rc.update_rule, rc.delete_rule " +
	"ORDER BY kc.constraint_name"

func (m *mysqlCatalog) Close() error {
	return m.db.Close()
}

func (m *mysqlCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, mysqlTablesQuery, m.schema)
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

func (m *mysqlCatalog) Columns(ctx context.Context, table string) ([]model.Column, error) {
	rows, err := m.db.QueryContext(ctx, mysqlColumnsQuery, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Column
	for rows.Next() {
		var (
			c                    model.Column
			collation, def       sql.NullString
			isNullable, cmt, ext string
		)
		if err := rows.Scan(&c.Name, &c.TypeName, &c.Type, &collation, &isNullable, &def, &cmt, &ext); err != nil {
			return nil, err
		}
		c.TypeName = strings.ToLower(c.TypeName)
		c.Collation = nullable(collation)
		c.Nullable = strings.EqualFold(isNullable, "YES")
		c.Default = nullable(def)
		if cmt != "" {
			c.Comment = model.StringPtr(cmt)
		}
		c.AutoIncrement = strings.EqualFold(ext, "auto_increment")
		out = append(out, c)
	}
	return out, rows.Err()
}

func (m *mysqlCatalog) Indexes(ctx context.Context, table string) ([]model.Index, error) {
	rows, err := m.db.QueryContext(ctx, mysqlIndexesQuery, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Index
	for rows.Next() {
		var (
			idx          model.Index
			columns, typ string
		)
		if err := rows.Scan(&idx.Name, &columns, &typ, &idx.Unique); err != nil {
			return nil, err
		}
		idx.Name = strings.ToLower(idx.Name)
		idx.Columns = splitList(columns)
		idx.Type = model.StringPtr(strings.ToLower(typ))
		idx.Primary = idx.Name == "primary"
		out = append(out, idx)
	}
	return out, rows.Err()
}

func (m *mysqlCatalog) ForeignKeys(ctx context.Context, table string) ([]model.ForeignKey, error) {
	rows, err := m.db.QueryContext(ctx, mysqlForeignKeysQuery, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ForeignKey
	for rows.Next() {
		var (
			name, schema, columns, foreignColumns string
			onUpdate, onDelete                    string
			fk                                    model.ForeignKey
		)
		if err := rows.Scan(&name, &columns, &schema, &fk.ForeignTable, &foreignColumns, &onUpdate, &onDelete); err != nil {
			return nil, err
		}
		fk.Name = model.StringPtr(name)
		fk.ForeignSchema = model.StringPtr(schema)
		fk.Columns = splitList(columns)
		fk.ForeignColumns = splitList(foreignColumns)
		fk.OnUpdate = strings.ToLower(onUpdate)
		fk.OnDelete = strings.ToLower(onDelete)
		out = append(out, fk)
	}
	return out, rows.Err()
}
