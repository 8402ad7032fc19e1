package player

import (
	"sort"
	"strconv"

	sonic "github.com/bytedance/sonic"
)

// FieldDelta is one changed attribute between two bags. Old and New carry the
// serialized values; nil means the field was absent (or null) on that side.
type FieldDelta struct {
	Field string
	Old   *string
	New   *string
}

// SerializeValue flattens an attribute value to its comparable string form.
// nil stays nil, strings pass through, scalars are formatted, and container
// values fall back to their JSON encoding.
func SerializeValue(v any) *string {
	if v == nil {
		return nil
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case bool:
		s = strconv.FormatBool(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		raw, err := sonic.ConfigStd.Marshal(t)
		if err != nil {
			s = err.Error()
		} else {
			s = string(raw)
		}
	}
	return &s
}

// DiffRecords compares two attribute bags field by field and returns the
// deltas, sorted by field name. A field counts as changed when its serialized
// forms differ; fields present on only one side are included with the missing
// side nil. Equal bags return an empty slice.
func DiffRecords(oldData, newData Attributes) []FieldDelta {
	fields := make(map[string]struct{}, len(oldData)+len(newData))
	for k := range oldData {
		fields[k] = struct{}{}
	}
	for k := range newData {
		fields[k] = struct{}{}
	}

	deltas := make([]FieldDelta, 0, len(fields))
	for field := range fields {
		oldVal := SerializeValue(oldData[field])
		newVal := SerializeValue(newData[field])
		if equalSerialized(oldVal, newVal) {
			continue
		}
		deltas = append(deltas, FieldDelta{Field: field, Old: oldVal, New: newVal})
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Field < deltas[j].Field })
	return deltas
}

func equalSerialized(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
