package dbschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

const vswitchDoc = `{
  "name": "Open_vSwitch",
  "version": "8.3.0",
  "cksum": "3781850481 26690",
  "tables": {
    "Bridge": {
      "columns": {
        "name": {"type": "string", "mutable": false},
        "datapath_id": {"type": {"key": "string", "min": 0, "max": 1}, "ephemeral": true},
        "fail_mode": {"type": {"key": {"type": "string", "enum": ["set", ["standalone", "secure"]]}, "min": 0, "max": 1}},
        "flood_vlans": {"type": {"key": {"type": "integer", "minInteger": 0, "maxInteger": 4095}, "min": 0, "max": 4096}},
        "ports": {"type": {"key": {"type": "uuid", "refTable": "Port"}, "min": 0, "max": "unlimited"}},
        "external_ids": {"type": {"key": "string", "value": "string", "min": 0, "max": "unlimited"}},
        "stp_enable": {"type": "boolean"}
      },
      "indexes": [["name"]],
      "isRoot": true
    },
    "Port": {
      "columns": {
        "name": {"type": "string", "mutable": false},
        "interfaces": {"type": {"key": {"type": "uuid", "refTable": "Interface"}, "min": 1, "max": "unlimited"}},
        "tag": {"type": {"key": {"type": "integer", "minInteger": 0, "maxInteger": 4095}, "min": 0, "max": 1}}
      },
      "indexes": [["name"]],
      "maxRows": 1000
    }
  }
}`

func TestParseVswitch(t *testing.T) {
	schema, err := Parse([]byte(vswitchDoc))
	require.NoError(t, err)

	assert.Equal(t, "Open_vSwitch", schema.Name)
	assert.Equal(t, "8.3.0", schema.Version)
	assert.Equal(t, "3781850481 26690", schema.Cksum)
	require.Len(t, schema.Tables, 2)
	assert.Equal(t, []string{"Bridge", "Port"}, schema.TableNames())

	bridge := schema.Tables["Bridge"]
	require.NotNil(t, bridge)
	assert.True(t, bridge.IsRoot)
	assert.Equal(t, [][]string{{"name"}}, bridge.Indexes)
	require.Len(t, bridge.Columns, 7)

	name := bridge.Columns["name"]
	assert.True(t, name.Type.IsScalar())
	assert.False(t, name.Mutable)
	assert.Equal(t, dbvalue.AtomicString, name.Type.Key.Kind)

	datapathID := bridge.Columns["datapath_id"]
	assert.True(t, datapathID.Type.IsOptional())
	assert.True(t, datapathID.Ephemeral)
	assert.True(t, datapathID.Mutable)

	failMode := bridge.Columns["fail_mode"]
	assert.True(t, failMode.Type.IsEnum())
	assert.Equal(t, []string{"standalone", "secure"}, failMode.Type.Key.Enum)

	floodVlans := bridge.Columns["flood_vlans"]
	assert.True(t, floodVlans.Type.IsSet())
	assert.Equal(t, 4096, floodVlans.Type.Max)
	require.NotNil(t, floodVlans.Type.Key.MinInteger)
	assert.Equal(t, int64(0), *floodVlans.Type.Key.MinInteger)
	require.NotNil(t, floodVlans.Type.Key.MaxInteger)
	assert.Equal(t, int64(4095), *floodVlans.Type.Key.MaxInteger)

	ports := bridge.Columns["ports"]
	assert.True(t, ports.Type.IsSet())
	assert.Equal(t, Unlimited, ports.Type.Max)
	assert.Equal(t, "Port", ports.Type.Key.RefTable)
	assert.Equal(t, dbvalue.Expect{Key: dbvalue.AtomicUUID, Min: 0, Max: Unlimited}, ports.Expect())

	extIDs := bridge.Columns["external_ids"]
	assert.True(t, extIDs.Type.IsMap())
	assert.Equal(t, dbvalue.AtomicString, extIDs.Type.Value.Kind)

	port := schema.Tables["Port"]
	require.NotNil(t, port)
	assert.False(t, port.IsRoot)
	assert.Equal(t, 1000, port.MaxRows)
	assert.Equal(t, []string{"interfaces", "name", "tag"}, port.ColumnNames())
	assert.Equal(t, 1, port.Columns["interfaces"].Type.Min)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing name", `{"tables": {}}`},
		{"missing tables", `{"name": "x"}`},
		{"table without columns", `{"name": "x", "tables": {"T": {"columns": {}}}}`},
		{"unknown atomic", `{"name": "x", "tables": {"T": {"columns": {"c": {"type": "varchar"}}}}}`},
		{"unknown key atomic", `{"name": "x", "tables": {"T": {"columns": {"c": {"type": {"key": "varchar"}}}}}}`},
		{"missing column type", `{"name": "x", "tables": {"T": {"columns": {"c": {}}}}}`},
		{"bad min", `{"name": "x", "tables": {"T": {"columns": {"c": {"type": {"key": "string", "min": 2}}}}}}`},
		{"min exceeds max", `{"name": "x", "tables": {"T": {"columns": {"c": {"type": {"key": "string", "min": 1, "max": 0}}}}}}`},
		{"bad max string", `{"name": "x", "tables": {"T": {"columns": {"c": {"type": {"key": "string", "max": "lots"}}}}}}`},
		{"index on unknown column", `{"name": "x", "tables": {"T": {"columns": {"c": {"type": "string"}}, "indexes": [["missing"]]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var serr *SchemaError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

func TestParseErrorNamesOffender(t *testing.T) {
	doc := `{"name": "x", "tables": {"T": {"columns": {"bad": {"type": "varchar"}}}}}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	serr := &SchemaError{}
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "T", serr.Table)
	assert.Equal(t, "bad", serr.Column)
	assert.Contains(t, err.Error(), "varchar")
}

func TestCompatible(t *testing.T) {
	compiled, err := Parse([]byte(vswitchDoc))
	require.NoError(t, err)

	t.Run("identical schema", func(t *testing.T) {
		server, err := Parse([]byte(vswitchDoc))
		require.NoError(t, err)
		assert.NoError(t, compiled.Compatible(server))
	})

	t.Run("renamed database", func(t *testing.T) {
		server, _ := Parse([]byte(vswitchDoc))
		server.Name = "Other"
		err := compiled.Compatible(server)
		var merr *dbvalue.SchemaMismatchError
		require.ErrorAs(t, err, &merr)
	})

	t.Run("column added on server", func(t *testing.T) {
		server, _ := Parse([]byte(vswitchDoc))
		server.Tables["Bridge"].Columns["extra"] = &Column{
			Name: "extra",
			Type: ColumnType{Key: BaseType{Kind: dbvalue.AtomicString}, Min: 1, Max: 1},
		}
		err := compiled.Compatible(server)
		var merr *dbvalue.SchemaMismatchError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "Bridge", merr.Table)
		assert.Equal(t, "extra", merr.Column)
	})

	t.Run("column dropped on server", func(t *testing.T) {
		server, _ := Parse([]byte(vswitchDoc))
		delete(server.Tables["Port"].Columns, "tag")
		err := compiled.Compatible(server)
		var merr *dbvalue.SchemaMismatchError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "Port", merr.Table)
	})

	t.Run("column retyped on server", func(t *testing.T) {
		server, _ := Parse([]byte(vswitchDoc))
		server.Tables["Bridge"].Columns["stp_enable"].Type.Key.Kind = dbvalue.AtomicString
		err := compiled.Compatible(server)
		var merr *dbvalue.SchemaMismatchError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "stp_enable", merr.Column)
	})

	t.Run("version drift alone is tolerated", func(t *testing.T) {
		server, _ := Parse([]byte(vswitchDoc))
		server.Version = "8.4.0"
		assert.NoError(t, compiled.Compatible(server))
	})
}
