package dbmonitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

const (
	uuidA = "11111111-1111-1111-1111-111111111111"
	uuidB = "22222222-2222-2222-2222-222222222222"
)

type fakeDB struct {
	method    string
	args      interface{}
	response  json.RawMessage
	err       error
	callbacks map[string]Callback
}

func newFakeDB(response string) *fakeDB {
	return &fakeDB{response: json.RawMessage(response), callbacks: map[string]Callback{}}
}

func (f *fakeDB) Call(method string, args interface{}, idref *uint64) (json.RawMessage, error) {
	f.method = method
	f.args = args
	return f.response, f.err
}

func (f *fakeDB) AddCallback(id string, cb Callback) { f.callbacks[id] = cb }

func (f *fakeDB) RemoveCallback(id string) { delete(f.callbacks, id) }

func (f *fakeDB) push(id, update string) { f.callbacks[id](json.RawMessage(update), nil) }
func (f *fakeDB) fail(id string, err error) { f.callbacks[id](nil, err) }

func newMonitor(db *fakeDB) *Monitor {
	m := &Monitor{OVSDB: db, Database: "Open_vSwitch", ID: "mon1"}
	m.Register("Bridge", nil)
	return m
}

func collect(events *[]RowEvent) func(RowEvent) {
	return func(ev RowEvent) { *events = append(*events, ev) }
}

func TestStartAppliesInitialSnapshot(t *testing.T) {
	db := newFakeDB(`{"Bridge":{"` + uuidA + `":{"new":{"name":"br0","stp_enable":false}}}}`)
	m := newMonitor(db)

	var events []RowEvent
	require.NoError(t, m.Start(collect(&events), nil))

	assert.Equal(t, "monitor", db.method)
	data, err := json.Marshal(db.args)
	require.NoError(t, err)
	assert.JSONEq(t, `["Open_vSwitch","mon1",{"Bridge":{}}]`, string(data))

	require.Len(t, events, 1)
	assert.Equal(t, OpInitial, events[0].Op)
	assert.Equal(t, uuidA, events[0].UUID)

	row := m.Row("Bridge", uuidA)
	require.NotNil(t, row)
	assert.JSONEq(t, `"br0"`, string(row["name"]))
}

func TestFoldModifyOntoSnapshot(t *testing.T) {
	db := newFakeDB(`{"Bridge":{"` + uuidA + `":{"new":{"name":"br0","stp_enable":false,"datapath_id":["set",[]]}}}}`)
	m := newMonitor(db)

	var events []RowEvent
	require.NoError(t, m.Start(collect(&events), nil))

	// update2-style delta: only changed columns arrive
	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"modify":{"stp_enable":true}}}}`)

	require.Len(t, events, 2)
	assert.Equal(t, OpModify, events[1].Op)
	assert.JSONEq(t, `false`, string(events[1].Old["stp_enable"]))

	row := m.Row("Bridge", uuidA)
	assert.JSONEq(t, `true`, string(row["stp_enable"]))
	// untouched columns survive the merge
	assert.JSONEq(t, `"br0"`, string(row["name"]))
	assert.JSONEq(t, `["set",[]]`, string(row["datapath_id"]))
}

func TestFoldSequenceMatchesArrivalOrder(t *testing.T) {
	db := newFakeDB(`{"Bridge":{"` + uuidA + `":{"new":{"name":"br0","flood_vlans":["set",[]]}}}}`)
	m := newMonitor(db)

	var events []RowEvent
	require.NoError(t, m.Start(collect(&events), nil))

	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"modify":{"flood_vlans":["set",[10]]}}}}`)
	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"modify":{"flood_vlans":["set",[10,20]]}}}}`)
	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"modify":{"name":"br0-renamed"}}}}`)

	row := m.Row("Bridge", uuidA)
	assert.JSONEq(t, `["set",[10,20]]`, string(row["flood_vlans"]))
	assert.JSONEq(t, `"br0-renamed"`, string(row["name"]))

	require.Len(t, events, 4)
	assert.Equal(t, []RowOp{OpInitial, OpModify, OpModify, OpModify},
		[]RowOp{events[0].Op, events[1].Op, events[2].Op, events[3].Op})
}

// racingDB delivers a queued notification concurrently with the
// monitor reply, the way a delete sitting right behind the reply on
// the wire reaches the session from the receive loop.
type racingDB struct {
	fakeDB
	update json.RawMessage
	pushed chan struct{}
}

func (f *racingDB) Call(method string, args interface{}, idref *uint64) (json.RawMessage, error) {
	go func() {
		f.callbacks["mon1"](f.update, nil)
		close(f.pushed)
	}()
	return f.response, nil
}

func TestSnapshotFoldsBeforeQueuedDelete(t *testing.T) {
	db := &racingDB{
		fakeDB: *newFakeDB(`{"Bridge":{"` + uuidA + `":{"new":{"name":"br0"}}}}`),
		update: json.RawMessage(`{"Bridge":{"` + uuidA + `":{"old":{"name":"br0"}}}}`),
		pushed: make(chan struct{}),
	}
	m := &Monitor{OVSDB: db, Database: "Open_vSwitch", ID: "mon1"}
	m.Register("Bridge", nil)

	handler, ch := EventChannel(4)
	require.NoError(t, m.Start(handler, nil))
	<-db.pushed

	// the delete trailed the snapshot on the wire, so it must fold
	// after it; the dead row stays dead
	assert.Nil(t, m.Row("Bridge", uuidA))
	assert.Equal(t, OpInitial, (<-ch).Op)
	assert.Equal(t, OpDelete, (<-ch).Op)
}

func TestDeleteWinsOverLaterModify(t *testing.T) {
	db := newFakeDB(`{"Bridge":{"` + uuidA + `":{"new":{"name":"br0"}}}}`)
	m := newMonitor(db)

	var events []RowEvent
	require.NoError(t, m.Start(collect(&events), nil))

	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"old":{"name":"br0"}}}}`)
	// a straggling delta for the dead row must not resurrect it
	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"modify":{"name":"zombie"}}}}`)

	assert.Nil(t, m.Row("Bridge", uuidA))
	require.Len(t, events, 2)
	assert.Equal(t, OpDelete, events[1].Op)
	assert.JSONEq(t, `"br0"`, string(events[1].Old["name"]))
}

func TestClassicInsertAndDelete(t *testing.T) {
	db := newFakeDB(`{"Bridge":{}}`)
	m := newMonitor(db)

	var events []RowEvent
	require.NoError(t, m.Start(collect(&events), nil))

	db.push("mon1", `{"Bridge":{"`+uuidB+`":{"new":{"name":"br1"}}}}`)
	require.Len(t, events, 1)
	assert.Equal(t, OpInsert, events[0].Op)

	db.push("mon1", `{"Bridge":{"`+uuidB+`":{"old":{"name":"br1"},"new":{"name":"br1","stp_enable":true}}}}`)
	require.Len(t, events, 2)
	assert.Equal(t, OpModify, events[1].Op)

	db.push("mon1", `{"Bridge":{"`+uuidB+`":{"old":{"name":"br1"}}}}`)
	require.Len(t, events, 3)
	assert.Equal(t, OpDelete, events[2].Op)
	assert.Empty(t, m.Rows("Bridge"))
}

func TestUpdate2Shapes(t *testing.T) {
	db := newFakeDB(`{"Bridge":{"` + uuidA + `":{"initial":{"name":"br0"}}}}`)
	m := newMonitor(db)

	var events []RowEvent
	require.NoError(t, m.Start(collect(&events), nil))
	require.Len(t, events, 1)
	assert.Equal(t, OpInitial, events[0].Op)

	db.push("mon1", `{"Bridge":{"`+uuidB+`":{"insert":{"name":"br1"}}}}`)
	db.push("mon1", `{"Bridge":{"`+uuidA+`":{"delete":null}}}`)

	require.Len(t, events, 3)
	assert.Equal(t, OpInsert, events[1].Op)
	assert.Equal(t, OpDelete, events[2].Op)
	assert.Nil(t, m.Row("Bridge", uuidA))
	assert.NotNil(t, m.Row("Bridge", uuidB))
}

func TestFind(t *testing.T) {
	db := newFakeDB(`{"Bridge":{
		"` + uuidA + `":{"new":{"name":"br0"}},
		"` + uuidB + `":{"new":{"name":"br1"}}}}`)
	m := newMonitor(db)
	require.NoError(t, m.Start(nil, nil))

	assert.Equal(t, []string{uuidB}, m.Find("Bridge", "name", dbvalue.String("br1")))
	assert.Empty(t, m.Find("Bridge", "name", dbvalue.String("missing")))
}

func TestStartRequiresRegistration(t *testing.T) {
	m := &Monitor{OVSDB: newFakeDB(`{}`), Database: "db", ID: "mon1"}
	assert.Error(t, m.Start(nil, nil))
}

func TestTransportFailureReachesSession(t *testing.T) {
	db := newFakeDB(`{}`)
	m := newMonitor(db)

	var got error
	require.NoError(t, m.Start(nil, func(err error) { got = err }))

	db.fail("mon1", assert.AnError)
	assert.Equal(t, assert.AnError, got)
}

func TestCancelUnregisters(t *testing.T) {
	db := newFakeDB(`{}`)
	m := newMonitor(db)
	require.NoError(t, m.Start(nil, nil))
	require.Contains(t, db.callbacks, "mon1")

	require.NoError(t, m.Cancel())
	assert.Equal(t, "monitor_cancel", db.method)
	assert.NotContains(t, db.callbacks, "mon1")
}
