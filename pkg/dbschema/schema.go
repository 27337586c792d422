// Package dbschema models OVSDB database schemas: the tables, columns
// and column types described by a schema document (RFC 7047 section
// 3.2), parsed once and immutable thereafter.
package dbschema

import (
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// Unlimited marks a column with no upper cardinality bound.
const Unlimited = dbvalue.Unlimited

// Schema describes one database: its tables keyed by name.
type Schema struct {
	Name    string
	Version string
	Cksum   string
	Tables  map[string]*Table
}

// Table describes one table. Rows of root tables exist on their own;
// rows of non-root tables are garbage collected once unreferenced.
type Table struct {
	Name    string
	IsRoot  bool
	MaxRows int
	Indexes [][]string
	Columns map[string]*Column
}

// Column describes one column of a table.
type Column struct {
	Name      string
	Type      ColumnType
	Ephemeral bool
	Mutable   bool
}

// ColumnType carries the atom kind(s) and cardinality bounds of a
// column. Value is nil except for map columns.
type ColumnType struct {
	Key   BaseType
	Value *BaseType
	Min   int // 0 or 1
	Max   int // >= 1, or Unlimited
}

// BaseType is the atom kind of a key or value plus its constraints.
type BaseType struct {
	Kind       dbvalue.Atomic
	Enum       []string
	MinInteger *int64
	MaxInteger *int64
	MinReal    *float64
	MaxReal    *float64
	MinLength  *int64
	MaxLength  *int64
	RefTable   string
	RefType    string
}

// IsScalar reports a plain single-valued column.
func (t *ColumnType) IsScalar() bool {
	return t.Value == nil && t.Min == 1 && t.Max == 1
}

// IsOptional reports a min=0, max=1 column, which maps to a nullable
// native field.
func (t *ColumnType) IsOptional() bool {
	return t.Value == nil && t.Min == 0 && t.Max == 1
}

// IsSet reports a column holding more than one atom.
func (t *ColumnType) IsSet() bool {
	return t.Value == nil && (t.Max == Unlimited || t.Max > 1)
}

// IsMap reports a key/value column.
func (t *ColumnType) IsMap() bool {
	return t.Value != nil
}

// IsEnum reports a string column constrained to a fixed set of values.
func (t *ColumnType) IsEnum() bool {
	return t.Value == nil && t.Key.Kind == dbvalue.AtomicString && len(t.Key.Enum) > 0
}

// Expect returns the wire shape decoder expectation for this column.
func (c *Column) Expect() dbvalue.Expect {
	e := dbvalue.Expect{Key: c.Type.Key.Kind, Min: c.Type.Min, Max: c.Type.Max}
	if c.Type.Value != nil {
		e.Value = c.Type.Value.Kind
	}
	return e
}

// TableNames returns table names in sorted order, so passes over the
// schema are deterministic.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnNames returns column names in sorted order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFile reads and parses a schema document from disk.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema %s", path)
	}
	return Parse(data)
}
