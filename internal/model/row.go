package model

// RawRow is one record as produced by a streaming parser, before any
// transformation. CSV parsers emit string values; the JSON parser emits
// decoded values that may still be nested.
type RawRow struct {
	// Line is the 1-based data row number within the source file.
	Line int
	// Columns preserves source column order.
	Columns []string
	// Values maps column name to raw value.
	Values map[string]any
	// Malformed marks rows with a column-count mismatch. They are diverted
	// to the reject sink instead of aborting the parse.
	Malformed bool
}

// ParsedRow maps sanitized field names to typed values.
type ParsedRow map[string]Value

// SanitizeFieldName rewrites a column name into a safe identifier alphabet
// ([A-Za-z0-9_], leading digit prefixed with '_'). Two distinct source
// columns may sanitize to the same name; collisions are not de-duplicated.
func SanitizeFieldName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		case r == ' ' || r == '-' || r == '.' || r == '/':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = append([]rune{'_'}, out...)
	}
	return string(out)
}
