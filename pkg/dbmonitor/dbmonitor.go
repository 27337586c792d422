// Package dbmonitor implements OVSDB monitor sessions: subscriptions
// that fold incremental table-update notifications into a consistent
// per-table row mirror and surface them as ordered row events.
package dbmonitor

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// Callback receives raw table-update payloads routed by monitor id.
// A nil update with a non-nil error is the terminal transport-failure
// broadcast.
type Callback func(update json.RawMessage, err error)

// iOVSDB is the client surface a monitor session drives.
type iOVSDB interface {
	Call(method string, args interface{}, idref *uint64) (json.RawMessage, error)
	AddCallback(id string, cb Callback)
	RemoveCallback(id string)
}

// RowOp tags one row change.
type RowOp string

const (
	OpInitial RowOp = "initial"
	OpInsert  RowOp = "insert"
	OpModify  RowOp = "modify"
	OpDelete  RowOp = "delete"
)

// Row is a raw wire row, column name to undecoded value. Callers feed
// it to the generated FromWire converters for typed access.
type Row map[string]json.RawMessage

// RowEvent is one folded row change, delivered in server-emission
// order. Row holds the full row state after the change (nil for
// deletes); Old holds the prior snapshot for modify and delete.
type RowEvent struct {
	Table string
	UUID  string
	Op    RowOp
	Row   Row
	Old   Row
}

// Select controls which change kinds the server reports for a table.
type Select struct {
	Initial bool `json:"initial"`
	Insert  bool `json:"insert"`
	Delete  bool `json:"delete"`
	Modify  bool `json:"modify"`
}

// Request is the per-table monitor request. Nil Columns watches all
// columns; nil Select reports everything.
type Request struct {
	Columns []string `json:"columns,omitempty"`
	Select  *Select  `json:"select,omitempty"`
}

// Monitor is one subscription: a set of watched tables plus the
// last-applied row snapshot per table.
type Monitor struct {
	OVSDB    iOVSDB
	Database string
	ID       string
	Requests map[string]Request

	mu      sync.Mutex
	rows    map[string]map[string]Row
	handler func(RowEvent)
	failed  func(error)
	started bool

	// ready is closed once the initial snapshot has been folded.
	// Notifications queued on the wire behind the monitor reply park
	// in dispatch until then, so they never fold before the snapshot.
	ready chan struct{}
}

// Register adds a table to the subscription. Must be called before
// Start.
func (m *Monitor) Register(table string, columns []string) {
	m.RegisterSelect(table, columns, nil)
}

// RegisterSelect adds a table with an explicit change-kind filter.
func (m *Monitor) RegisterSelect(table string, columns []string, sel *Select) {
	if m.Requests == nil {
		m.Requests = make(map[string]Request)
	}
	m.Requests[table] = Request{Columns: columns, Select: sel}
}

// Start issues the monitor call and begins delivering events. The
// initial snapshot arrives as OpInitial events before Start returns;
// later notifications invoke handler on the receive-loop dispatch
// path, preserving wire order. onFailure, if non-nil, fires once when
// the transport dies or the session is cancelled.
func (m *Monitor) Start(handler func(RowEvent), onFailure func(error)) error {
	if m.started {
		return errors.New("monitor already started")
	}
	if len(m.Requests) == 0 {
		return errors.New("no tables registered")
	}
	m.handler = handler
	m.failed = onFailure
	m.rows = make(map[string]map[string]Row)
	m.ready = make(chan struct{})
	m.started = true

	m.OVSDB.AddCallback(m.ID, m.dispatch)
	response, err := m.OVSDB.Call("monitor", []interface{}{m.Database, m.ID, m.Requests}, nil)
	if err != nil {
		m.OVSDB.RemoveCallback(m.ID)
		m.started = false
		close(m.ready)
		return err
	}
	err = m.apply(response, true)
	close(m.ready)
	return err
}

// Cancel stops the subscription. Updates already queued on the wire
// may still be discarded by the client after this returns.
func (m *Monitor) Cancel() error {
	m.OVSDB.RemoveCallback(m.ID)
	_, err := m.OVSDB.Call("monitor_cancel", []interface{}{m.ID}, nil)
	return err
}

// Rows returns a copy of the current mirror of one table.
func (m *Monitor) Rows(table string) map[string]Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Row, len(m.rows[table]))
	for id, r := range m.rows[table] {
		out[id] = r
	}
	return out
}

// Row returns the current state of one row, or nil if absent.
func (m *Monitor) Row(table, uuid string) Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[table][uuid]
}

// Find returns the uuids of rows whose column currently equals value.
// Intended for index columns, where at most one row matches.
func (m *Monitor) Find(table, column string, value dbvalue.Value) []string {
	want, err := dbvalue.Encode(value)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []string
	for id, r := range m.rows[table] {
		raw, ok := r[column]
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if json.Compact(&buf, raw) != nil {
			continue
		}
		if bytes.Equal(buf.Bytes(), want) {
			matches = append(matches, id)
		}
	}
	return matches
}

func (m *Monitor) dispatch(update json.RawMessage, err error) {
	// the snapshot precedes every notification on the wire; hold that
	// order even though it is folded on the Start caller's goroutine
	<-m.ready

	if err != nil {
		if m.failed != nil {
			m.failed(err)
		}
		return
	}
	if aerr := m.apply(update, false); aerr != nil && m.failed != nil {
		m.failed(aerr)
	}
}
