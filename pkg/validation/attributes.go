package validation

import (
	"github.com/goliatone/go-profileform/pkg/model"
)

// Attribute is a single HTML attribute emitted for in-browser validation.
// Boolean attributes carry an empty Value.
type Attribute struct {
	Name  string
	Value string
}

// HTMLAttributes mirrors the server rules of field as native constraint
// attributes, so the browser enforces the same limits the action does.
func HTMLAttributes(field model.Field) []Attribute {
	var attrs []Attribute
	if field.Required {
		attrs = append(attrs, Attribute{Name: "required"})
	}
	for _, c := range compile(field) {
		switch c.kind {
		case model.ValidationRuleMinLength:
			attrs = append(attrs, Attribute{Name: "minlength", Value: c.tag[len("min="):]})
		case model.ValidationRuleMaxLength:
			attrs = append(attrs, Attribute{Name: "maxlength", Value: c.tag[len("max="):]})
		case model.ValidationRuleMin:
			attrs = append(attrs, Attribute{Name: "min", Value: c.tag[len("gte="):]})
		case model.ValidationRuleMax:
			attrs = append(attrs, Attribute{Name: "max", Value: c.tag[len("lte="):]})
		case model.ValidationRulePattern:
			attrs = append(attrs, Attribute{Name: "pattern", Value: c.pattern})
		}
	}
	return attrs
}

// InputType returns the HTML input type for field.
func InputType(field model.Field) string {
	switch {
	case field.Format == model.FormatEmail:
		return "email"
	case field.Type == model.FieldTypeInteger, field.Type == model.FieldTypeNumber:
		return "number"
	case field.Type == model.FieldTypeBoolean:
		return "checkbox"
	default:
		return "text"
	}
}
