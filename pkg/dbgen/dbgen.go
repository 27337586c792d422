// Package dbgen compiles an OVSDB schema into Go source: one native
// record type per table plus the wire-proxy conversions between the
// record and the dbvalue model. The pass is pure and deterministic;
// the same schema document always yields byte-identical output.
package dbgen

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"

	"github.com/holodekk/ovsdb/pkg/dbschema"
	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

const valuePkg = "github.com/holodekk/ovsdb/pkg/dbvalue"

// File is one emitted source file.
type File struct {
	Name   string
	Source []byte
}

// Generate compiles a schema into source files for package pkg: a
// package doc file plus one file per table, in sorted table order.
func Generate(schema *dbschema.Schema, pkg string) ([]File, error) {
	if pkg == "" {
		return nil, errors.New("dbgen: package name required")
	}

	files := make([]File, 0, len(schema.Tables)+1)
	doc, err := generateDoc(schema, pkg)
	if err != nil {
		return nil, err
	}
	files = append(files, doc)

	for _, name := range schema.TableNames() {
		file, err := generateTable(schema.Tables[name], pkg)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// Builder writes generated sources to disk, the shape build scripts
// call into.
type Builder struct {
	outDir string
}

// Configure returns a Builder targeting the working directory.
func Configure() *Builder {
	return &Builder{outDir: "."}
}

// OutDir sets the directory generated files are written to.
func (b *Builder) OutDir(dir string) *Builder {
	b.outDir = dir
	return b
}

// Compile parses the schema document at path and writes the generated
// package named pkg under the configured output directory.
func (b *Builder) Compile(path, pkg string) error {
	schema, err := dbschema.ParseFile(path)
	if err != nil {
		return err
	}
	files, err := Generate(schema, pkg)
	if err != nil {
		return err
	}

	dir := filepath.Join(b.outDir, pkg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file.Name), file.Source, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", file.Name)
		}
	}
	return nil
}

func generateDoc(schema *dbschema.Schema, pkg string) (File, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n", header(schema))
	fmt.Fprintf(&buf, "// Package %s contains typed records for the %q database, schema version %s.\n",
		pkg, schema.Name, schema.Version)
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "// DatabaseName is the database these records were compiled from.\n")
	fmt.Fprintf(&buf, "const DatabaseName = %q\n\n", schema.Name)
	fmt.Fprintf(&buf, "// SchemaVersion is the schema version these records were compiled from.\n")
	fmt.Fprintf(&buf, "const SchemaVersion = %q\n", schema.Version)

	return gofmt("doc.go", buf.Bytes())
}

func generateTable(table *dbschema.Table, pkg string) (File, error) {
	fields := make([]field, 0, len(table.Columns))
	for _, name := range table.ColumnNames() {
		fields = append(fields, newField(table.Columns[name]))
	}

	recv := strcase.ToCamel(table.Name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\npackage %s\n\n", tableHeader(table), pkg)
	fmt.Fprintf(&buf, "import (\n\t\"encoding/json\"\n\n\t%q\n)\n\n", valuePkg)

	writeEnums(&buf, recv, fields)
	writeStruct(&buf, table, recv, fields)
	writeTableName(&buf, table, recv)
	writeToWire(&buf, recv, fields)
	writeFromWire(&buf, table, recv, fields)

	return gofmt(strcase.ToSnake(table.Name)+".go", buf.Bytes())
}

func writeEnums(buf *bytes.Buffer, recv string, fields []field) {
	for _, f := range fields {
		if len(f.enum) == 0 {
			continue
		}
		fmt.Fprintf(buf, "// Values the schema allows for the %s column.\n", f.column.Name)
		fmt.Fprintf(buf, "const (\n")
		for _, choice := range f.enum {
			fmt.Fprintf(buf, "\t%s%s%s = %q\n", recv, f.goName, strcase.ToCamel(choice), choice)
		}
		fmt.Fprintf(buf, ")\n\n")
	}
}

func writeStruct(buf *bytes.Buffer, table *dbschema.Table, recv string, fields []field) {
	fmt.Fprintf(buf, "// %s is a row of the %q table.\n", recv, table.Name)
	fmt.Fprintf(buf, "type %s struct {\n", recv)
	fmt.Fprintf(buf, "\tUUID dbvalue.UUID\n")
	for _, f := range fields {
		fmt.Fprintf(buf, "\t%s %s\n", f.goName, f.goType)
	}
	fmt.Fprintf(buf, "}\n\n")
}

func writeTableName(buf *bytes.Buffer, table *dbschema.Table, recv string) {
	fmt.Fprintf(buf, "// TableName routes rows of this type to the %q table.\n", table.Name)
	fmt.Fprintf(buf, "func (*%s) TableName() string { return %q }\n\n", recv, table.Name)
}

func writeToWire(buf *bytes.Buffer, recv string, fields []field) {
	fmt.Fprintf(buf, "// ToWire converts the record to a wire row. The _uuid column is\n")
	fmt.Fprintf(buf, "// omitted; the server assigns it.\n")
	fmt.Fprintf(buf, "func (x *%s) ToWire() dbvalue.Row {\n", recv)
	fmt.Fprintf(buf, "\treturn dbvalue.Row{\n")
	for _, f := range fields {
		fmt.Fprintf(buf, "\t\t%q: %s,\n", f.column.Name, f.toWire)
	}
	fmt.Fprintf(buf, "\t}\n}\n\n")
}

func writeFromWire(buf *bytes.Buffer, table *dbschema.Table, recv string, fields []field) {
	fmt.Fprintf(buf, "// %sFromWire decodes a wire row. Columns absent from the row keep\n", recv)
	fmt.Fprintf(buf, "// their zero value; columns absent from the schema fail with a\n")
	fmt.Fprintf(buf, "// schema mismatch, since they mean these types are stale.\n")
	fmt.Fprintf(buf, "func %sFromWire(data []byte) (*%s, error) {\n", recv, recv)
	fmt.Fprintf(buf, "\tvar row map[string]json.RawMessage\n")
	fmt.Fprintf(buf, "\tif err := json.Unmarshal(data, &row); err != nil {\n")
	fmt.Fprintf(buf, "\t\treturn nil, &dbvalue.DecodeError{Got: string(data), Want: \"row object\"}\n")
	fmt.Fprintf(buf, "\t}\n")
	fmt.Fprintf(buf, "\tx := new(%s)\n", recv)
	fmt.Fprintf(buf, "\tfor column, raw := range row {\n")
	fmt.Fprintf(buf, "\t\tvar err error\n")
	fmt.Fprintf(buf, "\t\tswitch column {\n")
	fmt.Fprintf(buf, "\t\tcase \"_uuid\":\n")
	fmt.Fprintf(buf, "\t\t\tx.UUID, err = dbvalue.DecodeScalar[dbvalue.UUID](raw, dbvalue.Expect{Key: dbvalue.AtomicUUID, Min: 1, Max: 1})\n")
	fmt.Fprintf(buf, "\t\tcase \"_version\":\n")
	fmt.Fprintf(buf, "\t\t\t// server bookkeeping, not part of the record\n")
	for _, f := range fields {
		fmt.Fprintf(buf, "\t\tcase %q:\n", f.column.Name)
		fmt.Fprintf(buf, "\t\t\tx.%s, err = %s\n", f.goName, f.fromWire)
	}
	fmt.Fprintf(buf, "\t\tdefault:\n")
	fmt.Fprintf(buf, "\t\t\treturn nil, &dbvalue.SchemaMismatchError{Table: %q, Column: column}\n", table.Name)
	fmt.Fprintf(buf, "\t\t}\n")
	fmt.Fprintf(buf, "\t\tif err != nil {\n\t\t\treturn nil, err\n\t\t}\n")
	fmt.Fprintf(buf, "\t}\n")
	fmt.Fprintf(buf, "\treturn x, nil\n}\n")
}

func header(schema *dbschema.Schema) string {
	return fmt.Sprintf("// Code generated by dbgen from the %q schema (version %s). DO NOT EDIT.",
		schema.Name, schema.Version)
}

func tableHeader(table *dbschema.Table) string {
	return fmt.Sprintf("// Code generated by dbgen for table %q. DO NOT EDIT.", table.Name)
}

func gofmt(name string, src []byte) (File, error) {
	formatted, err := format.Source(src)
	if err != nil {
		return File{}, errors.Wrapf(err, "formatting %s", name)
	}
	return File{Name: name, Source: formatted}, nil
}

// field carries everything the templates need for one column.
type field struct {
	column   *dbschema.Column
	goName   string
	goType   string
	toWire   string
	fromWire string
	enum     []string
}

func newField(column *dbschema.Column) field {
	f := field{
		column: column,
		goName: strcase.ToCamel(column.Name),
	}
	if column.Type.IsEnum() {
		f.enum = column.Type.Key.Enum
	}

	native := nativeType(column.Type.Key.Kind)
	expect := expectLiteral(column)
	access := "x." + f.goName

	switch {
	case column.Type.IsMap():
		valueNative := nativeType(column.Type.Value.Kind)
		f.goType = fmt.Sprintf("map[%s]%s", native, valueNative)
		f.toWire = fmt.Sprintf("dbvalue.FromMap(%s)", access)
		f.fromWire = fmt.Sprintf("dbvalue.DecodeMap[%s, %s](raw, %s)", native, valueNative, expect)
	case column.Type.IsSet():
		f.goType = "[]" + native
		f.toWire = fmt.Sprintf("dbvalue.FromSlice(%s)", access)
		f.fromWire = fmt.Sprintf("dbvalue.DecodeSlice[%s](raw, %s)", native, expect)
	case column.Type.IsOptional():
		f.goType = "*" + native
		f.toWire = fmt.Sprintf("dbvalue.FromOptional(%s)", access)
		f.fromWire = fmt.Sprintf("dbvalue.DecodeOptional[%s](raw, %s)", native, expect)
	default:
		f.goType = native
		f.toWire = fmt.Sprintf("dbvalue.FromScalar(%s)", access)
		f.fromWire = fmt.Sprintf("dbvalue.DecodeScalar[%s](raw, %s)", native, expect)
	}
	return f
}

func nativeType(kind dbvalue.Atomic) string {
	switch kind {
	case dbvalue.AtomicInteger:
		return "int64"
	case dbvalue.AtomicReal:
		return "float64"
	case dbvalue.AtomicBoolean:
		return "bool"
	case dbvalue.AtomicString:
		return "string"
	case dbvalue.AtomicUUID:
		return "dbvalue.UUID"
	}
	return "string"
}

func expectLiteral(column *dbschema.Column) string {
	e := column.Expect()
	max := fmt.Sprintf("%d", e.Max)
	if e.Max == dbvalue.Unlimited {
		max = "dbvalue.Unlimited"
	}
	if e.Value != "" {
		return fmt.Sprintf("dbvalue.Expect{Key: %s, Value: %s, Min: %d, Max: %s}",
			atomicLiteral(e.Key), atomicLiteral(e.Value), e.Min, max)
	}
	return fmt.Sprintf("dbvalue.Expect{Key: %s, Min: %d, Max: %s}", atomicLiteral(e.Key), e.Min, max)
}

func atomicLiteral(kind dbvalue.Atomic) string {
	switch kind {
	case dbvalue.AtomicInteger:
		return "dbvalue.AtomicInteger"
	case dbvalue.AtomicReal:
		return "dbvalue.AtomicReal"
	case dbvalue.AtomicBoolean:
		return "dbvalue.AtomicBoolean"
	case dbvalue.AtomicString:
		return "dbvalue.AtomicString"
	}
	return "dbvalue.AtomicUUID"
}
