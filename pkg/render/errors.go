package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-profileform/pkg/model"
)

// ErrorMapping splits a validation payload into field-level messages and
// form-level messages shown in the banner.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Keys servers commonly use for errors that belong to no single field.
var formLevelKeys = map[string]bool{
	"":                 true,
	"form":             true,
	"base":             true,
	"__all__":          true,
	"non_field_errors": true,
	"non-field-errors": true,
}

// Leading path segments that wrap the submitted body.
var wrapperSegments = map[string]bool{
	"body":       true,
	"request":    true,
	"payload":    true,
	"data":       true,
	"attributes": true,
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return uniqueMessages(combined)
}

// MapErrorPayload assigns payload messages to form fields. Keys may be plain
// field names, dotted paths, JSON pointers or JSONPath-like expressions, and
// may be wrapped in segments such as "body." or carry array indexes. Keys
// that do not resolve to a field become form-level messages.
func MapErrorPayload(form model.FormModel, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]bool, len(form.Fields))
	for _, field := range form.Fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			known[name] = true
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := uniqueMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := fieldForKey(key, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[name] = uniqueMessages(append(mapping.Fields[name], messages...))
	}

	mapping.Form = uniqueMessages(mapping.Form)
	return mapping
}

func fieldForKey(key string, known map[string]bool) (string, bool) {
	key = strings.TrimSpace(key)
	if formLevelKeys[strings.ToLower(key)] {
		return "", false
	}

	segments := strings.FieldsFunc(key, func(r rune) bool {
		return r == '.' || r == '/' || r == '[' || r == ']'
	})

	var path []string
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		switch segment {
		case "", "#", "$":
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		// JSON pointer escapes.
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		path = append(path, segment)
	}

	for len(path) > 0 && wrapperSegments[strings.ToLower(path[0])] && !known[path[0]] {
		path = path[1:]
	}
	if len(path) == 0 || !known[path[0]] {
		return "", false
	}
	return path[0], true
}

func uniqueMessages(messages []string) []string {
	var out []string
	seen := make(map[string]bool, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || seen[message] {
			continue
		}
		seen[message] = true
		out = append(out, message)
	}
	return out
}
