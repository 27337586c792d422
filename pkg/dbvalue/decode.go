package dbvalue

import (
	"bytes"
	"encoding/json"
)

// Atomic names one of the five OVSDB atom kinds.
type Atomic string

const (
	AtomicInteger Atomic = "integer"
	AtomicReal    Atomic = "real"
	AtomicBoolean Atomic = "boolean"
	AtomicString  Atomic = "string"
	AtomicUUID    Atomic = "uuid"
)

// Unlimited marks a column with no upper cardinality bound.
const Unlimited = -1

// Expect describes the wire shape a decoder should accept for one
// column: the atom kind (key and, for maps, value) and the cardinality
// bounds from the column schema.
type Expect struct {
	Key   Atomic
	Value Atomic // set only for map columns
	Min   int
	Max   int // 1, >1, or Unlimited
}

// Decode parses a wire JSON value against the expected column shape.
// Singleton columns are accepted in both the bare-atom and
// ["set",[x]] forms and canonicalize to the bare atom; columns with
// max > 1 always decode to a Set or Map, even with one element.
func Decode(data []byte, e Expect) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, &DecodeError{Got: string(data), Want: string(e.Key)}
	}
	return decodeColumn(raw, e)
}

func decodeColumn(raw interface{}, e Expect) (Value, error) {
	if e.Value != "" {
		return decodeMap(raw, e)
	}
	if e.Max != 1 {
		return decodeSet(raw, e)
	}

	if tag, body, ok := tagged(raw); ok && tag == "set" {
		elems, ok := body.([]interface{})
		if !ok {
			return nil, decodeErr(raw, "set payload")
		}
		switch len(elems) {
		case 0:
			return Set{}, nil
		case 1:
			return decodeAtom(elems[0], e.Key)
		default:
			return nil, decodeErr(raw, "at most one "+string(e.Key))
		}
	}
	return decodeAtom(raw, e.Key)
}

func decodeSet(raw interface{}, e Expect) (Value, error) {
	if tag, body, ok := tagged(raw); ok && tag == "set" {
		elems, ok := body.([]interface{})
		if !ok {
			return nil, decodeErr(raw, "set payload")
		}
		out := make(Set, 0, len(elems))
		for _, el := range elems {
			atom, err := decodeAtom(el, e.Key)
			if err != nil {
				return nil, err
			}
			out = append(out, atom)
		}
		return out, nil
	}
	// single element sets may arrive as the bare atom
	atom, err := decodeAtom(raw, e.Key)
	if err != nil {
		return nil, err
	}
	return Set{atom}, nil
}

func decodeMap(raw interface{}, e Expect) (Value, error) {
	tag, body, ok := tagged(raw)
	if !ok || tag != "map" {
		return nil, decodeErr(raw, "map of "+string(e.Key)+" to "+string(e.Value))
	}
	pairs, ok := body.([]interface{})
	if !ok {
		return nil, decodeErr(raw, "map payload")
	}
	out := make(Map, 0, len(pairs))
	for _, p := range pairs {
		kv, ok := p.([]interface{})
		if !ok || len(kv) != 2 {
			return nil, decodeErr(p, "[key, value] pair")
		}
		k, err := decodeAtom(kv[0], e.Key)
		if err != nil {
			return nil, err
		}
		v, err := decodeAtom(kv[1], e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Key: k, Value: v})
	}
	return out, nil
}

func decodeAtom(raw interface{}, kind Atomic) (Value, error) {
	switch kind {
	case AtomicInteger:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, decodeErr(raw, "integer")
		}
		i, err := n.Int64()
		if err != nil {
			return nil, decodeErr(raw, "integer")
		}
		return Integer(i), nil
	case AtomicReal:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, decodeErr(raw, "real")
		}
		f, err := n.Float64()
		if err != nil {
			return nil, decodeErr(raw, "real")
		}
		return Real(f), nil
	case AtomicBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, decodeErr(raw, "boolean")
		}
		return Boolean(b), nil
	case AtomicString:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErr(raw, "string")
		}
		return String(s), nil
	case AtomicUUID:
		// named-uuid is request-only vocabulary; a server never emits
		// one, so only the real ["uuid",...] form decodes
		tag, body, ok := tagged(raw)
		if !ok || tag != "uuid" {
			return nil, decodeErr(raw, "uuid")
		}
		s, sok := body.(string)
		if !sok {
			return nil, decodeErr(raw, "uuid")
		}
		u, err := ParseUUID(s)
		if err != nil {
			return nil, decodeErr(raw, "uuid")
		}
		return u, nil
	}
	return nil, decodeErr(raw, "known atom kind")
}

// tagged recognizes the two-element ["<tag>", payload] wire form used
// for uuid, named-uuid, set and map values.
func tagged(raw interface{}) (string, interface{}, bool) {
	arr, ok := raw.([]interface{})
	if !ok || len(arr) != 2 {
		return "", nil, false
	}
	tag, ok := arr[0].(string)
	if !ok {
		return "", nil, false
	}
	switch tag {
	case "uuid", "named-uuid", "set", "map":
		return tag, arr[1], true
	}
	return "", nil, false
}
