package dbschema

import "fmt"

// SchemaError reports a malformed or unsupported schema document. It
// is fatal to the parse/compile step that raised it.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("schema error in table %q, column %q: %s", e.Table, e.Column, e.Reason)
	case e.Table != "":
		return fmt.Sprintf("schema error in table %q: %s", e.Table, e.Reason)
	}
	return "schema error: " + e.Reason
}
