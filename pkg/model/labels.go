package model

import (
	"regexp"
	"strings"
	"unicode"
)

var labelSeparators = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler turns a field name into a label when the schema does not
// carry a title: "first_name" and "firstName" both become "First Name".
func DefaultLabeler(name string) string {
	var words []string
	for _, chunk := range labelSeparators.Split(strings.TrimSpace(name), -1) {
		for _, word := range splitCamel(chunk) {
			if word == "" {
				continue
			}
			runes := []rune(strings.ToLower(word))
			runes[0] = unicode.ToUpper(runes[0])
			words = append(words, string(runes))
		}
	}
	return strings.Join(words, " ")
}

func splitCamel(input string) []string {
	var (
		out     []string
		current []rune
	)
	runes := []rune(input)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			out = append(out, string(current))
			current = current[:0]
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}
