package render

import (
	"fmt"
	"sort"
	"strings"
)

// ClientValidationField carries the client validation switch through plain
// form posts.
const ClientValidationField = "_clientValidation"

// HiddenField is a hidden input rendered ahead of the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden builds a HiddenField, formatting value with fmt.Sprint.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// MergeHiddenFields copies base and applies fields over it. Blank names are
// dropped and later fields win. The result is nil when nothing remains.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	var out map[string]string
	set := func(name, value string) {
		if name = strings.TrimSpace(name); name == "" {
			return
		}
		if out == nil {
			out = make(map[string]string, len(base)+len(fields))
		}
		out[name] = value
	}
	for name, value := range base {
		set(name, value)
	}
	for _, field := range fields {
		set(field.Name, field.Value)
	}
	return out
}

// SortedHiddenFields lists fields by name so output is stable.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]HiddenField, 0, len(fields))
	for name, value := range fields {
		out = append(out, HiddenField{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
