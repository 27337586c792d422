// Package dbtransaction builds and submits OVSDB transactions: the
// typed operations of RFC 7047 section 5.2 and a staged-commit handle
// over a client session.
package dbtransaction

import (
	"encoding/json"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// Operation is one entry of a transact request.
type Operation interface {
	json.Marshaler
	Op() string
}

// Condition is one where-clause triple: column, comparison function,
// value. It encodes as a 3-element array.
type Condition struct {
	Column   string
	Function string // ==, !=, <, <=, >, >=, includes, excludes
	Value    dbvalue.Value
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]interface{}{c.Column, c.Function, c.Value})
}

// Mutation is one mutate-clause triple: column, mutator, value.
type Mutation struct {
	Column  string
	Mutator string // +=, -=, *=, /=, %=, insert, delete
	Value   dbvalue.Value
}

func (m Mutation) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]interface{}{m.Column, m.Mutator, m.Value})
}

// where always encodes as an array; an empty clause matches all rows.
func conditions(where []Condition) []Condition {
	if where == nil {
		return []Condition{}
	}
	return where
}

func row(r dbvalue.Row) dbvalue.Row {
	if r == nil {
		return dbvalue.Row{}
	}
	return r
}

// Insert creates a row. UUIDName, when set, names the new row's uuid
// for reference by later operations in the same transaction.
type Insert struct {
	Table    string
	Row      dbvalue.Row
	UUIDName string
}

func (Insert) Op() string { return "insert" }

func (o Insert) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op       string      `json:"op"`
		Table    string      `json:"table"`
		Row      dbvalue.Row `json:"row"`
		UUIDName string      `json:"uuid-name,omitempty"`
	}{o.Op(), o.Table, row(o.Row), o.UUIDName})
}

// Select reads rows matching the where clause. A nil Columns selects
// all columns.
type Select struct {
	Table   string
	Where   []Condition
	Columns []string
}

func (Select) Op() string { return "select" }

func (o Select) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op      string      `json:"op"`
		Table   string      `json:"table"`
		Where   []Condition `json:"where"`
		Columns []string    `json:"columns,omitempty"`
	}{o.Op(), o.Table, conditions(o.Where), o.Columns})
}

// Update overwrites the given columns of all matching rows.
type Update struct {
	Table string
	Where []Condition
	Row   dbvalue.Row
}

func (Update) Op() string { return "update" }

func (o Update) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string      `json:"op"`
		Table string      `json:"table"`
		Where []Condition `json:"where"`
		Row   dbvalue.Row `json:"row"`
	}{o.Op(), o.Table, conditions(o.Where), row(o.Row)})
}

// Mutate applies mutators to columns of all matching rows.
type Mutate struct {
	Table     string
	Where     []Condition
	Mutations []Mutation
}

func (Mutate) Op() string { return "mutate" }

func (o Mutate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op        string      `json:"op"`
		Table     string      `json:"table"`
		Where     []Condition `json:"where"`
		Mutations []Mutation  `json:"mutations"`
	}{o.Op(), o.Table, conditions(o.Where), o.Mutations})
}

// Delete removes all matching rows.
type Delete struct {
	Table string
	Where []Condition
}

func (Delete) Op() string { return "delete" }

func (o Delete) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string      `json:"op"`
		Table string      `json:"table"`
		Where []Condition `json:"where"`
	}{o.Op(), o.Table, conditions(o.Where)})
}

// Wait blocks the transaction until the selected rows match (or stop
// matching) the given rows, up to the timeout in milliseconds.
type Wait struct {
	Timeout int
	Table   string
	Where   []Condition
	Columns []string
	Until   string // == or !=
	Rows    []dbvalue.Row
}

func (Wait) Op() string { return "wait" }

func (o Wait) MarshalJSON() ([]byte, error) {
	rows := o.Rows
	if rows == nil {
		rows = []dbvalue.Row{}
	}
	return json.Marshal(struct {
		Op      string        `json:"op"`
		Timeout int           `json:"timeout,omitempty"`
		Table   string        `json:"table"`
		Where   []Condition   `json:"where"`
		Columns []string      `json:"columns,omitempty"`
		Until   string        `json:"until"`
		Rows    []dbvalue.Row `json:"rows"`
	}{o.Op(), o.Timeout, o.Table, conditions(o.Where), o.Columns, o.Until, rows})
}

// Commit fails the transaction if Durable cannot be honored.
type Commit struct {
	Durable bool
}

func (Commit) Op() string { return "commit" }

func (o Commit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op      string `json:"op"`
		Durable bool   `json:"durable"`
	}{o.Op(), o.Durable})
}

// Comment adds a note to the database log alongside the transaction.
type Comment struct {
	Comment string
}

func (Comment) Op() string { return "comment" }

func (o Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op      string `json:"op"`
		Comment string `json:"comment"`
	}{o.Op(), o.Comment})
}

// Assert fails the transaction unless the client holds the named lock.
type Assert struct {
	Lock string
}

func (Assert) Op() string { return "assert" }

func (o Assert) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string `json:"op"`
		Lock string `json:"lock"`
	}{o.Op(), o.Lock})
}
