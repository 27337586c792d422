package dbtransaction

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// iOVSDB is the client surface the transaction handle drives.
type iOVSDB interface {
	Call(method string, args interface{}, idref *uint64) (json.RawMessage, error)
	Notify(method string, args interface{}) error
}

// Transaction stages operations and submits them atomically. Named
// uuids handed out by Insert are scoped to this transaction; the
// server resolves them at commit and they must not be reused in a
// later transaction.
type Transaction struct {
	OVSDB    iOVSDB
	Database string
	ops      []Operation
	counter  int
	id       uint64
}

// New returns a transaction handle for the given database.
func New(db iOVSDB, database string) *Transaction {
	return &Transaction{OVSDB: db, Database: database, counter: 1}
}

// Add stages arbitrary operations.
func (txn *Transaction) Add(ops ...Operation) {
	txn.ops = append(txn.ops, ops...)
}

// Ops returns the number of staged operations.
func (txn *Transaction) Ops() int {
	return len(txn.ops)
}

// Insert stages a row insert and returns the named uuid later
// operations in this transaction can reference the new row by.
func (txn *Transaction) Insert(table string, r dbvalue.Row) string {
	name := "row" + strconv.Itoa(txn.counter)
	txn.counter++
	txn.Add(Insert{Table: table, Row: r, UUIDName: name})
	return name
}

// Select stages a read of the given columns; nil selects all columns.
func (txn *Transaction) Select(table string, columns []string, where ...Condition) {
	txn.Add(Select{Table: table, Columns: columns, Where: where})
}

// Update stages a column overwrite on all rows matching where.
func (txn *Transaction) Update(table string, r dbvalue.Row, where ...Condition) {
	txn.Add(Update{Table: table, Row: r, Where: where})
}

// Mutate stages mutators on all rows matching where.
func (txn *Transaction) Mutate(table string, mutations []Mutation, where ...Condition) {
	txn.Add(Mutate{Table: table, Mutations: mutations, Where: where})
}

// Delete stages removal of all rows matching where.
func (txn *Transaction) Delete(table string, where ...Condition) {
	txn.Add(Delete{Table: table, Where: where})
}

// Wait stages a precondition on the current table contents.
func (txn *Transaction) Wait(timeout int, table string, columns []string, until string, rows []dbvalue.Row, where ...Condition) {
	txn.Add(Wait{Timeout: timeout, Table: table, Columns: columns, Until: until, Rows: rows, Where: where})
}

// Comment stages a note for the database log.
func (txn *Transaction) Comment(text string) {
	txn.Add(Comment{Comment: text})
}

// AssertLock stages an ownership assertion on the named lock.
func (txn *Transaction) AssertLock(lock string) {
	txn.Add(Assert{Lock: lock})
}

// Commit submits the staged operations as one atomic transact call.
// On a server-reported operation failure it returns a *ProtocolError
// carrying the failing index and no result, since none of the
// transaction applied.
func (txn *Transaction) Commit() (Result, error) {
	args := make([]interface{}, 0, len(txn.ops)+1)
	args = append(args, txn.Database)
	for _, op := range txn.ops {
		args = append(args, op)
	}

	response, err := txn.OVSDB.Call("transact", args, &txn.id)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(response, &result); err != nil {
		return nil, errors.Wrap(err, "malformed transact result")
	}
	if err := result.Check(len(txn.ops)); err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel aborts an in-flight Commit. It is a notification; the
// outcome still arrives through the pending transact call.
func (txn *Transaction) Cancel() error {
	return txn.OVSDB.Notify("cancel", []interface{}{txn.id})
}
