package dbgen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holodekk/ovsdb/pkg/dbschema"
)

const testDoc = `{
  "name": "Open_vSwitch",
  "version": "8.3.0",
  "tables": {
    "Bridge": {
      "columns": {
        "name": {"type": "string", "mutable": false},
        "datapath_id": {"type": {"key": "string", "min": 0, "max": 1}},
        "fail_mode": {"type": {"key": {"type": "string", "enum": ["set", ["standalone", "secure"]]}, "min": 0, "max": 1}},
        "ports": {"type": {"key": {"type": "uuid", "refTable": "Port"}, "min": 0, "max": "unlimited"}},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "stp_enable": {"type": "boolean"}
      },
      "isRoot": true
    },
    "Port": {
      "columns": {
        "name": {"type": "string"},
        "tag": {"type": {"key": "integer", "min": 0, "max": 1}}
      }
    }
  }
}`

func testSchema(t *testing.T) *dbschema.Schema {
	t.Helper()
	schema, err := dbschema.Parse([]byte(testDoc))
	require.NoError(t, err)
	return schema
}

func TestGenerateLayout(t *testing.T) {
	files, err := Generate(testSchema(t), "vswitch")
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "doc.go", files[0].Name)
	assert.Equal(t, "bridge.go", files[1].Name)
	assert.Equal(t, "port.go", files[2].Name)
}

func TestGeneratedSourceParses(t *testing.T) {
	files, err := Generate(testSchema(t), "vswitch")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, file := range files {
		_, perr := parser.ParseFile(fset, file.Name, file.Source, parser.AllErrors)
		assert.NoError(t, perr, file.Name)
	}
}

func TestGeneratedBridge(t *testing.T) {
	files, err := Generate(testSchema(t), "vswitch")
	require.NoError(t, err)
	src := string(files[1].Source)

	// record fields follow the column type mapping
	assert.Contains(t, src, "type Bridge struct {")
	assert.Regexp(t, `UUID\s+dbvalue\.UUID`, src)
	assert.Regexp(t, `Name\s+string`, src)
	assert.Regexp(t, `DatapathId\s+\*string`, src)
	assert.Regexp(t, `Ports\s+\[\]dbvalue\.UUID`, src)
	assert.Regexp(t, `ExternalIds\s+map\[string\]string`, src)
	assert.Regexp(t, `StpEnable\s+bool`, src)

	// stable type identity for routing result rows
	assert.Contains(t, src, `func (*Bridge) TableName() string { return "Bridge" }`)

	// enum choices become named constants
	assert.Regexp(t, `BridgeFailModeStandalone\s+= "standalone"`, src)
	assert.Regexp(t, `BridgeFailModeSecure\s+= "secure"`, src)

	// proxy conversions in both directions
	assert.Contains(t, src, "func (x *Bridge) ToWire() dbvalue.Row {")
	assert.Contains(t, src, "func BridgeFromWire(data []byte) (*Bridge, error) {")
	assert.Regexp(t, `"ports":\s+dbvalue\.FromSlice\(x\.Ports\)`, src)
	assert.Contains(t, src, "dbvalue.SchemaMismatchError{Table: \"Bridge\", Column: column}")
}

func TestGenerateDeterministic(t *testing.T) {
	schema := testSchema(t)

	first, err := Generate(schema, "vswitch")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Generate(schema, "vswitch")
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Name, again[j].Name)
			assert.Equal(t, string(first[j].Source), string(again[j].Source))
		}
	}
}

func TestGenerateRequiresPackage(t *testing.T) {
	_, err := Generate(testSchema(t), "")
	assert.Error(t, err)
}

func TestBuilderCompile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "vswitch.ovsschema")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testDoc), 0o644))

	err := Configure().OutDir(dir).Compile(schemaPath, "vswitch")
	require.NoError(t, err)

	for _, name := range []string{"doc.go", "bridge.go", "port.go"} {
		data, rerr := os.ReadFile(filepath.Join(dir, "vswitch", name))
		require.NoError(t, rerr, name)
		assert.NotEmpty(t, data)
	}
}

func TestBuilderCompileBadSchema(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "broken.ovsschema")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"name": "x"}`), 0o644))

	err := Configure().OutDir(dir).Compile(schemaPath, "broken")
	var serr *dbschema.SchemaError
	require.ErrorAs(t, err, &serr)
}
