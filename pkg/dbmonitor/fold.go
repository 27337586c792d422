package dbmonitor

import (
	"encoding/json"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// apply folds one table-updates payload into the mirror. Both the
// classic update shape (old/new rows) and the update2/update3 per-op
// shape (initial/insert/modify/delete) are accepted.
func (m *Monitor) apply(data json.RawMessage, initial bool) error {
	var tables map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &tables); err != nil {
		return &dbvalue.DecodeError{Got: string(data), Want: "table updates"}
	}
	for table, rows := range tables {
		for uuid, raw := range rows {
			if err := m.applyRow(table, uuid, raw, initial); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Monitor) applyRow(table, uuid string, raw json.RawMessage, initial bool) error {
	var fields map[string]Row
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &dbvalue.DecodeError{Got: string(raw), Want: "row update"}
	}

	newRow, hasNew := fields["new"]
	_, hasOld := fields["old"]
	switch {
	case hasNew && !hasOld:
		op := OpInsert
		if initial {
			op = OpInitial
		}
		m.insertRow(table, uuid, newRow, op)
		return nil
	case hasNew && hasOld:
		m.modifyRow(table, uuid, newRow)
		return nil
	case hasOld:
		m.deleteRow(table, uuid)
		return nil
	}

	if r, ok := fields["initial"]; ok {
		m.insertRow(table, uuid, r, OpInitial)
		return nil
	}
	if r, ok := fields["insert"]; ok {
		m.insertRow(table, uuid, r, OpInsert)
		return nil
	}
	if r, ok := fields["modify"]; ok {
		m.modifyRow(table, uuid, r)
		return nil
	}
	if _, ok := fields["delete"]; ok {
		m.deleteRow(table, uuid)
		return nil
	}
	return &dbvalue.DecodeError{Got: string(raw), Want: "row update operation"}
}

func (m *Monitor) insertRow(table, uuid string, row Row, op RowOp) {
	snapshot := make(Row, len(row))
	for k, v := range row {
		snapshot[k] = v
	}

	m.mu.Lock()
	if m.rows[table] == nil {
		m.rows[table] = make(map[string]Row)
	}
	m.rows[table][uuid] = snapshot
	m.mu.Unlock()

	m.emit(RowEvent{Table: table, UUID: uuid, Op: op, Row: snapshot})
}

// modifyRow overwrites the delta's columns onto the last-known
// snapshot. A modify for a row that was already deleted is dropped:
// deltas never resurrect a row.
func (m *Monitor) modifyRow(table, uuid string, delta Row) {
	m.mu.Lock()
	old, ok := m.rows[table][uuid]
	if !ok {
		m.mu.Unlock()
		return
	}
	merged := make(Row, len(old)+len(delta))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range delta {
		merged[k] = v
	}
	m.rows[table][uuid] = merged
	m.mu.Unlock()

	m.emit(RowEvent{Table: table, UUID: uuid, Op: OpModify, Row: merged, Old: old})
}

func (m *Monitor) deleteRow(table, uuid string) {
	m.mu.Lock()
	old, ok := m.rows[table][uuid]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.rows[table], uuid)
	m.mu.Unlock()

	m.emit(RowEvent{Table: table, UUID: uuid, Op: OpDelete, Old: old})
}

// emit runs outside the mirror lock so handlers may read the mirror.
func (m *Monitor) emit(ev RowEvent) {
	if m.handler != nil {
		m.handler(ev)
	}
}

// EventChannel adapts a buffered channel to the Start handler shape
// for consumers that drain events on their own goroutine.
func EventChannel(size int) (func(RowEvent), <-chan RowEvent) {
	ch := make(chan RowEvent, size)
	return func(ev RowEvent) { ch <- ev }, ch
}
