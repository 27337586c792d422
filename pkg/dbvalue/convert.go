package dbvalue

import "fmt"

// Native constrains the host types generated records use for atoms:
// int64, float64, bool, string and UUID. Enum columns convert through
// string.
type Native interface {
	int64 | float64 | bool | string | UUID
}

// FromScalar wraps a native atom as a Value.
func FromScalar[T Native](x T) Value {
	switch t := any(x).(type) {
	case int64:
		return Integer(t)
	case float64:
		return Real(t)
	case bool:
		return Boolean(t)
	case string:
		return String(t)
	case UUID:
		return t
	}
	panic("dbvalue: unhandled native kind")
}

// FromOptional wraps an optional (min=0, max=1) column value: nil
// becomes the empty set, a present value the bare atom.
func FromOptional[T Native](x *T) Value {
	if x == nil {
		return Set{}
	}
	return FromScalar(*x)
}

// FromSlice wraps a set column value.
func FromSlice[T Native](xs []T) Value {
	s := make(Set, len(xs))
	for i, x := range xs {
		s[i] = FromScalar(x)
	}
	return s
}

// FromMap wraps a map column value with deterministic pair order.
func FromMap[K Native, V Native](m map[K]V) Value {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Key: FromScalar(k), Value: FromScalar(v)})
	}
	return SortPairs(pairs)
}

// Scalar unwraps an atom into its native type.
func Scalar[T Native](v Value) (T, error) {
	var zero T
	x, ok := nativeAtom(v)
	if !ok {
		return zero, decodeErr(keyString(v), fmt.Sprintf("%T", zero))
	}
	t, ok := x.(T)
	if !ok {
		return zero, decodeErr(keyString(v), fmt.Sprintf("%T", zero))
	}
	return t, nil
}

// Optional unwraps an optional column value: empty set to nil, a bare
// atom or singleton set to a pointer.
func Optional[T Native](v Value) (*T, error) {
	if s, ok := v.(Set); ok {
		switch len(s) {
		case 0:
			return nil, nil
		case 1:
			t, err := Scalar[T](s[0])
			if err != nil {
				return nil, err
			}
			return &t, nil
		default:
			var zero T
			return nil, decodeErr(keyString(v), fmt.Sprintf("at most one %T", zero))
		}
	}
	t, err := Scalar[T](v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Slice unwraps a set column value. A bare atom is accepted as a
// singleton, matching the wire duality for single-element sets.
func Slice[T Native](v Value) ([]T, error) {
	s, ok := v.(Set)
	if !ok {
		t, err := Scalar[T](v)
		if err != nil {
			return nil, err
		}
		return []T{t}, nil
	}
	out := make([]T, len(s))
	for i, e := range s {
		t, err := Scalar[T](e)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// MapOf unwraps a map column value into a native Go map.
func MapOf[K Native, V Native](v Value) (map[K]V, error) {
	m, ok := v.(Map)
	if !ok {
		return nil, decodeErr(keyString(v), "map")
	}
	out := make(map[K]V, len(m))
	for _, p := range m {
		k, err := Scalar[K](p.Key)
		if err != nil {
			return nil, err
		}
		val, err := Scalar[V](p.Value)
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}

// DecodeScalar decodes a wire column value straight to its native
// type. The Decode* helpers below carry the wire-to-native path of
// generated record types.
func DecodeScalar[T Native](data []byte, e Expect) (T, error) {
	v, err := Decode(data, e)
	if err != nil {
		var zero T
		return zero, err
	}
	return Scalar[T](v)
}

// DecodeOptional decodes an optional wire column value to a pointer.
func DecodeOptional[T Native](data []byte, e Expect) (*T, error) {
	v, err := Decode(data, e)
	if err != nil {
		return nil, err
	}
	return Optional[T](v)
}

// DecodeSlice decodes a set wire column value to a native slice.
func DecodeSlice[T Native](data []byte, e Expect) ([]T, error) {
	v, err := Decode(data, e)
	if err != nil {
		return nil, err
	}
	return Slice[T](v)
}

// DecodeMap decodes a map wire column value to a native map.
func DecodeMap[K Native, V Native](data []byte, e Expect) (map[K]V, error) {
	v, err := Decode(data, e)
	if err != nil {
		return nil, err
	}
	return MapOf[K, V](v)
}

func nativeAtom(v Value) (interface{}, bool) {
	switch t := v.(type) {
	case Integer:
		return int64(t), true
	case Real:
		return float64(t), true
	case Boolean:
		return bool(t), true
	case String:
		return string(t), true
	case UUID:
		return t, true
	}
	return nil, false
}
