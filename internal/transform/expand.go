package transform

// FieldMapping declares how a source field is shaped. Fields marked as
// exploding arrays multiply a row into one output row per array index.
type FieldMapping struct {
	Type    string `yaml:"type"`    // "array" is the only type Expand acts on
	Explode bool   `yaml:"explode"` // explode into one row per element
}

// Expand explodes parallel arrays into multiple rows. The explode-marked
// field with the longest array drives the output row count; shorter arrays
// are zipped by index, repeating their last element once exhausted. Rows
// with no qualifying arrays pass through unchanged.
func Expand(row map[string]any, mapping map[string]FieldMapping) []map[string]any {
	arrays := make(map[string][]any)
	driverLen := 0
	for field, m := range mapping {
		if m.Type != "array" || !m.Explode {
			continue
		}
		arr, ok := row[field].([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		arrays[field] = arr
		if len(arr) > driverLen {
			driverLen = len(arr)
		}
	}
	if driverLen == 0 {
		return []map[string]any{row}
	}

	out := make([]map[string]any, 0, driverLen)
	for i := 0; i < driverLen; i++ {
		next := make(map[string]any, len(row))
		for k, v := range row {
			arr, ok := arrays[k]
			if !ok {
				next[k] = v
				continue
			}
			if i < len(arr) {
				next[k] = arr[i]
			} else {
				// Ragged arrays repeat their last element.
				next[k] = arr[len(arr)-1]
			}
		}
		out = append(out, next)
	}
	return out
}
