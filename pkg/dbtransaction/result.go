package dbtransaction

import (
	"encoding/json"
	"fmt"

	"github.com/holodekk/ovsdb/pkg/dbvalue"
)

// ProtocolError is a server-reported operation failure inside a
// transaction. The connection remains usable; the transaction as a
// whole did not apply.
type ProtocolError struct {
	Index   int
	Name    string
	Details string
}

func (e *ProtocolError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("operation %d failed: %s", e.Index, e.Name)
	}
	return fmt.Sprintf("operation %d failed: %s (%s)", e.Index, e.Name, e.Details)
}

// OperationResult is the per-operation entry of a transact reply:
// rows for select, a count for update/mutate/delete, a uuid for
// insert, or an error.
type OperationResult struct {
	Rows    []json.RawMessage
	Count   *int
	UUID    *dbvalue.UUID
	Error   string
	Details string
}

func (r *OperationResult) UnmarshalJSON(data []byte) error {
	var doc struct {
		Rows    []json.RawMessage `json:"rows"`
		Count   *int              `json:"count"`
		UUID    json.RawMessage   `json:"uuid"`
		Error   string            `json:"error"`
		Details string            `json:"details"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &dbvalue.DecodeError{Got: string(data), Want: "operation result"}
	}

	r.Rows = doc.Rows
	r.Count = doc.Count
	r.Error = doc.Error
	r.Details = doc.Details
	if len(doc.UUID) > 0 {
		v, err := dbvalue.Decode(doc.UUID, dbvalue.Expect{Key: dbvalue.AtomicUUID, Min: 1, Max: 1})
		if err != nil {
			return err
		}
		u, err := dbvalue.Scalar[dbvalue.UUID](v)
		if err != nil {
			return err
		}
		r.UUID = &u
	}
	return nil
}

// Result is the ordered per-operation outcome of one transaction.
type Result []OperationResult

// Check inspects the result of a transaction that submitted nops
// operations. The server executes operations in order and aborts at
// the first failure, so entries before the failed index reflect work
// that was rolled back with the rest; callers must not apply any of
// the results when Check fails.
func (r Result) Check(nops int) error {
	for i, res := range r {
		if res.Error != "" {
			return &ProtocolError{Index: i, Name: res.Error, Details: res.Details}
		}
	}
	if len(r) < nops {
		return &ProtocolError{Index: len(r), Name: "not executed",
			Details: fmt.Sprintf("server returned %d of %d results", len(r), nops)}
	}
	return nil
}
