package dbschema

import (
	"fmt"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// Compatible verifies that a schema fetched from a live server still
// matches the schema these types were compiled from. Any structural
// disagreement returns a *dbvalue.SchemaMismatchError naming the first
// divergence; the only recovery is regenerating the typed bindings.
//
// The check is strict: added, removed or retyped columns all fail,
// including additive-only server changes. The version string is not
// compared, since servers bump it for constraint tweaks that do not
// affect the wire shape.
func (s *Schema) Compatible(server *Schema) error {
	if s.Name != server.Name {
		return &dbvalue.SchemaMismatchError{
			Reason: fmt.Sprintf("compiled for database %q, server serves %q", s.Name, server.Name),
		}
	}
	for _, name := range s.TableNames() {
		table := s.Tables[name]
		remote, ok := server.Tables[name]
		if !ok {
			return &dbvalue.SchemaMismatchError{Table: name, Reason: "table missing on server"}
		}
		if err := table.compatible(remote); err != nil {
			return err
		}
	}
	for _, name := range server.TableNames() {
		if _, ok := s.Tables[name]; !ok {
			return &dbvalue.SchemaMismatchError{Table: name, Reason: "server has table unknown to compiled schema"}
		}
	}
	return nil
}

func (t *Table) compatible(remote *Table) error {
	for _, name := range t.ColumnNames() {
		column := t.Columns[name]
		other, ok := remote.Columns[name]
		if !ok {
			return &dbvalue.SchemaMismatchError{Table: t.Name, Column: name, Reason: "column missing on server"}
		}
		if !sameType(&column.Type, &other.Type) {
			return &dbvalue.SchemaMismatchError{Table: t.Name, Column: name, Reason: "column type differs on server"}
		}
	}
	for _, name := range remote.ColumnNames() {
		if _, ok := t.Columns[name]; !ok {
			return &dbvalue.SchemaMismatchError{Table: t.Name, Column: name, Reason: "server has column unknown to compiled schema"}
		}
	}
	return nil
}

func sameType(a, b *ColumnType) bool {
	if a.Key.Kind != b.Key.Kind || a.Min != b.Min || a.Max != b.Max {
		return false
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	if a.Value != nil && a.Value.Kind != b.Value.Kind {
		return false
	}
	return true
}
