package model

import "strings"

// Column describes one database column the way Laravel's schema builder
// reports it from getColumns().
type Column struct {
	// Name is the column name.
	Name string `json:"name"`

	// TypeName is the bare type without length or precision (e.g. "varchar").
	TypeName string `json:"type_name"`

	// Type is the full declared type (e.g. "varchar(255)").
	Type string `json:"type"`

	// Collation is the column collation, nil when the driver has none.
	Collation *string `json:"collation"`

	// Nullable reports whether NULL is allowed.
	Nullable bool `json:"nullable"`

	// Default is the raw default expression, nil when there is none.
	Default *string `json:"default"`

	// AutoIncrement reports whether the column is auto-incrementing.
	AutoIncrement bool `json:"auto_increment"`

	// Comment is the column comment, nil when there is none.
	Comment *string `json:"comment"`
}

// Summary renders the column in the compact "name: type (nullable)" form.
// It is a pure function of the verbose column, so compact mode never adds
// information.
func (c Column) Summary() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(": ")
	b.WriteString(c.TypeName)
	if c.Nullable {
		b.WriteString(" (nullable)")
	}
	return b.String()
}

// Index describes a table index. Type is nil for drivers that do not
// report an index method (SQLite).
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Type    *string  `json:"type"`
	Unique  bool     `json:"unique"`
	Primary bool     `json:"primary"`
}

// ForeignKey describes a foreign key constraint. SQLite constraints have
// neither a name nor a schema.
type ForeignKey struct {
	Name           *string  `json:"name"`
	Columns        []string `json:"columns"`
	ForeignSchema  *string  `json:"foreign_schema"`
	ForeignTable   string   `json:"foreign_table"`
	ForeignColumns []string `json:"foreign_columns"`
	OnUpdate       string   `json:"on_update"`
	OnDelete       string   `json:"on_delete"`
}

// TableSchema is the verbose description of one table.
type TableSchema struct {
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// CompactColumns renders every column with Column.Summary.
func CompactColumns(columns []Column) []string {
	lines := make([]string, len(columns))
	for i, c := range columns {
		lines[i] = c.Summary()
	}
	return lines
}

// StringPtr returns a pointer to s. Catalog code uses it for nullable text.
func StringPtr(s string) *string {
	return &s
}
