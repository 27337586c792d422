package dbschema

import (
	"encoding/json"
	"fmt"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// raw document shapes; the typed model is built from these so parse
// failures can name the offending table and column.

type schemaDoc struct {
	Name    string                     `json:"name"`
	Version string                     `json:"version"`
	Cksum   string                     `json:"cksum"`
	Tables  map[string]json.RawMessage `json:"tables"`
}

type tableDoc struct {
	Columns map[string]json.RawMessage `json:"columns"`
	IsRoot  bool                       `json:"isRoot"`
	MaxRows int                        `json:"maxRows"`
	Indexes [][]string                 `json:"indexes"`
}

type columnDoc struct {
	Type      json.RawMessage `json:"type"`
	Ephemeral bool            `json:"ephemeral"`
	Mutable   *bool           `json:"mutable"`
}

type typeDoc struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
	Min   *int            `json:"min"`
	Max   json.RawMessage `json:"max"`
}

type baseTypeDoc struct {
	Type       string          `json:"type"`
	Enum       json.RawMessage `json:"enum"`
	MinInteger *int64          `json:"minInteger"`
	MaxInteger *int64          `json:"maxInteger"`
	MinReal    *float64        `json:"minReal"`
	MaxReal    *float64        `json:"maxReal"`
	MinLength  *int64          `json:"minLength"`
	MaxLength  *int64          `json:"maxLength"`
	RefTable   string          `json:"refTable"`
	RefType    string          `json:"refType"`
}

// Parse builds a Schema from a schema document. Malformed structure,
// unknown type tags and inconsistent cardinality bounds fail with a
// *SchemaError naming the offending table and column.
func Parse(data []byte) (*Schema, error) {
	var doc schemaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Reason: "not a schema document: " + err.Error()}
	}
	if doc.Name == "" {
		return nil, &SchemaError{Reason: "missing database name"}
	}
	if doc.Tables == nil {
		return nil, &SchemaError{Reason: "missing tables"}
	}

	schema := &Schema{
		Name:    doc.Name,
		Version: doc.Version,
		Cksum:   doc.Cksum,
		Tables:  make(map[string]*Table, len(doc.Tables)),
	}
	for name, rawTable := range doc.Tables {
		table, err := parseTable(name, rawTable)
		if err != nil {
			return nil, err
		}
		schema.Tables[name] = table
	}
	return schema, nil
}

func parseTable(name string, data json.RawMessage) (*Table, error) {
	var doc tableDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Table: name, Reason: "malformed table: " + err.Error()}
	}
	if len(doc.Columns) == 0 {
		return nil, &SchemaError{Table: name, Reason: "table has no columns"}
	}

	table := &Table{
		Name:    name,
		IsRoot:  doc.IsRoot,
		MaxRows: doc.MaxRows,
		Indexes: doc.Indexes,
		Columns: make(map[string]*Column, len(doc.Columns)),
	}
	for colName, rawColumn := range doc.Columns {
		column, err := parseColumn(name, colName, rawColumn)
		if err != nil {
			return nil, err
		}
		table.Columns[colName] = column
	}
	for _, group := range doc.Indexes {
		for _, colName := range group {
			if _, ok := table.Columns[colName]; !ok {
				return nil, &SchemaError{Table: name, Column: colName, Reason: "index references unknown column"}
			}
		}
	}
	return table, nil
}

func parseColumn(table, name string, data json.RawMessage) (*Column, error) {
	var doc columnDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Table: table, Column: name, Reason: "malformed column: " + err.Error()}
	}
	if len(doc.Type) == 0 {
		return nil, &SchemaError{Table: table, Column: name, Reason: "missing column type"}
	}

	colType, err := parseType(table, name, doc.Type)
	if err != nil {
		return nil, err
	}

	mutable := true // RFC 7047: columns are mutable unless stated
	if doc.Mutable != nil {
		mutable = *doc.Mutable
	}
	return &Column{
		Name:      name,
		Type:      *colType,
		Ephemeral: doc.Ephemeral,
		Mutable:   mutable,
	}, nil
}

func parseType(table, column string, data json.RawMessage) (*ColumnType, error) {
	// bare form: "type": "string"
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		kind, err := parseAtomic(table, column, bare)
		if err != nil {
			return nil, err
		}
		return &ColumnType{Key: BaseType{Kind: kind}, Min: 1, Max: 1}, nil
	}

	var doc typeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Table: table, Column: column, Reason: "malformed column type"}
	}
	if len(doc.Key) == 0 {
		return nil, &SchemaError{Table: table, Column: column, Reason: "column type has no key"}
	}

	key, err := parseBaseType(table, column, doc.Key)
	if err != nil {
		return nil, err
	}
	colType := &ColumnType{Key: *key, Min: 1, Max: 1}

	if len(doc.Value) > 0 {
		value, err := parseBaseType(table, column, doc.Value)
		if err != nil {
			return nil, err
		}
		colType.Value = value
	}

	if doc.Min != nil {
		colType.Min = *doc.Min
	}
	if len(doc.Max) > 0 {
		var unlimited string
		if err := json.Unmarshal(doc.Max, &unlimited); err == nil {
			if unlimited != "unlimited" {
				return nil, &SchemaError{Table: table, Column: column, Reason: "max must be an integer or \"unlimited\""}
			}
			colType.Max = Unlimited
		} else if err := json.Unmarshal(doc.Max, &colType.Max); err != nil {
			return nil, &SchemaError{Table: table, Column: column, Reason: "max must be an integer or \"unlimited\""}
		}
	}

	if colType.Min != 0 && colType.Min != 1 {
		return nil, &SchemaError{Table: table, Column: column, Reason: "min must be 0 or 1"}
	}
	if colType.Max != Unlimited && colType.Max < 1 {
		return nil, &SchemaError{Table: table, Column: column, Reason: "max must be at least 1"}
	}
	if colType.Max != Unlimited && colType.Min > colType.Max {
		return nil, &SchemaError{Table: table, Column: column, Reason: "min exceeds max"}
	}
	return colType, nil
}

func parseBaseType(table, column string, data json.RawMessage) (*BaseType, error) {
	// bare form: "key": "integer"
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		kind, err := parseAtomic(table, column, bare)
		if err != nil {
			return nil, err
		}
		return &BaseType{Kind: kind}, nil
	}

	var doc baseTypeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Table: table, Column: column, Reason: "malformed base type"}
	}
	kind, err := parseAtomic(table, column, doc.Type)
	if err != nil {
		return nil, err
	}

	base := &BaseType{
		Kind:       kind,
		MinInteger: doc.MinInteger,
		MaxInteger: doc.MaxInteger,
		MinReal:    doc.MinReal,
		MaxReal:    doc.MaxReal,
		MinLength:  doc.MinLength,
		MaxLength:  doc.MaxLength,
		RefTable:   doc.RefTable,
		RefType:    doc.RefType,
	}
	if len(doc.Enum) > 0 {
		// enum arrives as a wire set: ["set",["a","b"]] or a bare string
		v, derr := dbvalue.Decode(doc.Enum, dbvalue.Expect{Key: kind, Min: 0, Max: Unlimited})
		if derr != nil {
			return nil, &SchemaError{Table: table, Column: column, Reason: "malformed enum: " + derr.Error()}
		}
		set, _ := v.(dbvalue.Set)
		for _, choice := range set {
			s, serr := dbvalue.Scalar[string](choice)
			if serr != nil {
				return nil, &SchemaError{Table: table, Column: column, Reason: "enum choices must be strings"}
			}
			base.Enum = append(base.Enum, s)
		}
	}
	return base, nil
}

func parseAtomic(table, column, kind string) (dbvalue.Atomic, error) {
	switch dbvalue.Atomic(kind) {
	case dbvalue.AtomicInteger, dbvalue.AtomicReal, dbvalue.AtomicBoolean,
		dbvalue.AtomicString, dbvalue.AtomicUUID:
		return dbvalue.Atomic(kind), nil
	}
	return "", &SchemaError{Table: table, Column: column, Reason: fmt.Sprintf("unknown atomic type %q", kind)}
}
