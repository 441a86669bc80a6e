package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-profileform/pkg/model"
)

// Validator evaluates form model rules against submitted values.
type Validator struct {
	validate *validator.Validate
	patterns sync.Map
}

// New constructs a Validator.
func New() *Validator {
	return &Validator{validate: validator.New()}
}

// check is a single compiled rule. Either tag (a validator expression) or
// pattern is set.
type check struct {
	kind    string
	tag     string
	pattern string
	message string
}

// Validate evaluates every field of form and returns the failing messages
// keyed by field name. A nil map means every field passed.
func (v *Validator) Validate(form model.FormModel, values map[string]any) map[string][]string {
	var out map[string][]string
	for _, field := range form.Fields {
		messages := v.ValidateField(field, values[field.Name])
		if len(messages) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[field.Name] = messages
	}
	return out
}

// ValidateField evaluates a single field. Empty optional values skip every
// other rule.
func (v *Validator) ValidateField(field model.Field, value any) []string {
	label := fieldLabel(field)

	if isEmpty(value) {
		if field.Required {
			return []string{fmt.Sprintf("%s is required", label)}
		}
		return nil
	}

	subject, err := coerce(field, value)
	if err != nil {
		return []string{err.Error()}
	}

	var messages []string
	for _, c := range compile(field) {
		if ok := v.run(c, subject); !ok {
			messages = appendUnique(messages, c.message)
		}
	}
	return messages
}

func (v *Validator) run(c check, subject any) bool {
	if c.pattern != "" {
		re, err := v.pattern(c.pattern)
		if err != nil {
			return false
		}
		text, _ := subject.(string)
		return re.MatchString(text)
	}
	return v.validate.Var(subject, c.tag) == nil
}

func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := v.patterns.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validation: compile pattern %q: %w", expr, err)
	}
	v.patterns.Store(expr, re)
	return re, nil
}

func compile(field model.Field) []check {
	label := fieldLabel(field)
	numeric := field.Type == model.FieldTypeInteger || field.Type == model.FieldTypeNumber

	var checks []check
	for _, rule := range field.Validations {
		value := rule.Value()
		switch rule.Kind {
		case model.ValidationRuleMinLength:
			if numeric || value == "" {
				continue
			}
			checks = append(checks, check{
				kind:    rule.Kind,
				tag:     "min=" + value,
				message: fmt.Sprintf("%s must be at least %s characters", label, value),
			})
		case model.ValidationRuleMaxLength:
			if numeric || value == "" {
				continue
			}
			checks = append(checks, check{
				kind:    rule.Kind,
				tag:     "max=" + value,
				message: fmt.Sprintf("%s must be at most %s characters", label, value),
			})
		case model.ValidationRuleMin:
			if !numeric || value == "" {
				continue
			}
			checks = append(checks, check{
				kind:    rule.Kind,
				tag:     "gte=" + value,
				message: fmt.Sprintf("%s must be at least %s", label, value),
			})
		case model.ValidationRuleMax:
			if !numeric || value == "" {
				continue
			}
			checks = append(checks, check{
				kind:    rule.Kind,
				tag:     "lte=" + value,
				message: fmt.Sprintf("%s must be at most %s", label, value),
			})
		case model.ValidationRulePattern:
			expr := rule.Params["pattern"]
			if expr == "" {
				continue
			}
			checks = append(checks, check{
				kind:    rule.Kind,
				pattern: expr,
				message: fmt.Sprintf("%s has an invalid format", label),
			})
		}
	}
	if field.Format == model.FormatEmail {
		checks = append(checks, check{
			kind:    "email",
			tag:     "email",
			message: fmt.Sprintf("%s must be a valid email address", label),
		})
	}
	return checks
}

func coerce(field model.Field, value any) (any, error) {
	label := fieldLabel(field)
	switch field.Type {
	case model.FieldTypeInteger:
		n, ok := toFloat(value)
		if !ok || n != math.Trunc(n) {
			return nil, fmt.Errorf("%s must be a whole number", label)
		}
		return n, nil
	case model.FieldTypeNumber:
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%s must be a number", label)
		}
		return n, nil
	case model.FieldTypeBoolean:
		switch typed := value.(type) {
		case bool:
			return typed, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(typed))
			if err != nil {
				return nil, fmt.Errorf("%s must be true or false", label)
			}
			return b, nil
		}
		return nil, fmt.Errorf("%s must be true or false", label)
	default:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return fmt.Sprint(value), nil
	}
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case fmt.Stringer:
		return toFloat(typed.String())
	}
	return 0, false
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	}
	return false
}

func fieldLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return model.DefaultLabeler(field.Name)
}

func appendUnique(list []string, message string) []string {
	for _, existing := range list {
		if existing == message {
			return list
		}
	}
	return append(list, message)
}

// SortedFields returns the keys of a field error map in a stable order.
func SortedFields(errs map[string][]string) []string {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
