// Package dbvalue implements the OVSDB value model: the typed
// representation of database values and their JSON wire encoding as
// defined by RFC 7047 section 5.1.
package dbvalue

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// Value is the closed set of OVSDB database values. Exactly one of
// Integer, Real, Boolean, String, UUID, NamedUUID, Set or Map.
type Value interface {
	json.Marshaler
	isValue()
}

// Integer is an OVSDB integer atom (64-bit signed).
type Integer int64

// Real is an OVSDB real atom.
type Real float64

// Boolean is an OVSDB boolean atom.
type Boolean bool

// String is an OVSDB string atom.
type String string

// UUID is an OVSDB uuid atom, encoded on the wire as
// ["uuid","<36-char canonical form>"].
type UUID struct {
	uuid.UUID
}

// NamedUUID is a transaction-scoped alias for a row created by an
// earlier insert in the same transaction. The server resolves it to a
// real UUID; it must not be reused across transactions.
type NamedUUID string

// Set is an ordered sequence of atoms of one kind, encoded as
// ["set",[...]]. A singleton set on a max=1 column is
// wire-indistinguishable from the bare atom.
type Set []Value

// Pair is a single key/value entry of a Map.
type Pair struct {
	Key   Value
	Value Value
}

// Map is an ordered sequence of key/value pairs with unique keys,
// encoded as ["map",[[k,v],...]].
type Map []Pair

// Row maps column names to values, the shape rows take in operations
// and results.
type Row map[string]Value

func (Integer) isValue()   {}
func (Real) isValue()      {}
func (Boolean) isValue()   {}
func (String) isValue()    {}
func (UUID) isValue()      {}
func (NamedUUID) isValue() {}
func (Set) isValue()       {}
func (Map) isValue()       {}

// NewUUID returns a fresh random UUID value.
func NewUUID() UUID {
	return UUID{uuid.New()}
}

// ParseUUID parses the canonical 36-character form.
func ParseUUID(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, err
	}
	return UUID{u}, nil
}

func (v Integer) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(v))
}

func (v Real) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(v))
}

func (v Boolean) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(v))
}

func (v String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{"uuid", v.String()})
}

func (v NamedUUID) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{"named-uuid", string(v)})
}

func (v Set) MarshalJSON() ([]byte, error) {
	elems := make([]json.RawMessage, len(v))
	for i, e := range v {
		data, err := e.MarshalJSON()
		if err != nil {
			return nil, err
		}
		elems[i] = data
	}
	return json.Marshal([2]interface{}{"set", elems})
}

func (v Map) MarshalJSON() ([]byte, error) {
	pairs := make([][2]Value, len(v))
	for i, p := range v {
		pairs[i] = [2]Value{p.Key, p.Value}
	}
	return json.Marshal([2]interface{}{"map", pairs})
}

// Encode serializes a value to its wire form. Sets always take the
// tagged ["set",[...]] form; use EncodeColumn for max=1 columns.
func Encode(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// EncodeColumn returns the value to place in a row for a column with
// the given max cardinality. On a max=1 column a singleton set
// collapses to its bare element; an empty set stays ["set",[]].
func EncodeColumn(v Value, max int) Value {
	if s, ok := v.(Set); ok && max == 1 && len(s) == 1 {
		return s[0]
	}
	return v
}

// MakeSet builds a set from the given elements.
func MakeSet(vs ...Value) Set {
	return Set(vs)
}

// UUIDSet builds a set of uuid atoms.
func UUIDSet(ids ...UUID) Set {
	s := make(Set, len(ids))
	for i, id := range ids {
		s[i] = id
	}
	return s
}

// WithoutUUIDs returns a copy of the set with the given uuids removed.
// Used when detaching rows from a reference column.
func (v Set) WithoutUUIDs(ids ...UUID) Set {
	drop := make(map[UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make(Set, 0, len(v))
	for _, e := range v {
		if u, ok := e.(UUID); ok && drop[u] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// WithNamedUUIDs returns a copy of the set with named-uuid references
// appended, for linking rows inserted in the same transaction.
func (v Set) WithNamedUUIDs(names ...string) Set {
	out := make(Set, 0, len(v)+len(names))
	out = append(out, v...)
	for _, n := range names {
		out = append(out, NamedUUID(n))
	}
	return out
}

// SortPairs orders map entries by the wire form of their keys so a Map
// built from an unordered source encodes deterministically.
func SortPairs(pairs []Pair) Map {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return keyString(sorted[i].Key) < keyString(sorted[j].Key)
	})
	return Map(sorted)
}

func keyString(v Value) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
