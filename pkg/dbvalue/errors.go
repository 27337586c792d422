package dbvalue

import "fmt"

// DecodeError reports a wire value whose shape does not match the
// expected column type. The connection that produced it remains
// usable; only the offending value is lost.
type DecodeError struct {
	Got  string
	Want string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s as %s", e.Got, e.Want)
}

func decodeErr(got interface{}, want string) *DecodeError {
	return &DecodeError{Got: fmt.Sprintf("%v", got), Want: want}
}

// SchemaMismatchError reports a column returned by the server that the
// compiled schema does not know about. It means the generated types
// are stale relative to the server and must be regenerated; the
// session cannot be trusted beyond this point.
type SchemaMismatchError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "server returned unknown column"
	}
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("schema mismatch in table %q, column %q: %s", e.Table, e.Column, reason)
	case e.Table != "":
		return fmt.Sprintf("schema mismatch in table %q: %s", e.Table, reason)
	}
	return "schema mismatch: " + reason
}
