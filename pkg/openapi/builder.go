package openapi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-profileform/pkg/model"
)

const (
	extensionNamespace  = "x-profileform"
	fieldOrderExtension = "x-field-order"
)

var (
	errOperationIDMissing = errors.New("openapi: operation id is required")
	errDocumentEmpty      = errors.New("openapi: document payload is empty")
)

// Options configures the Builder.
type Options struct {
	// Labeler derives labels for properties without a title.
	Labeler func(string) string
	// AllowExternalRefs lets the loader follow references outside the document.
	AllowExternalRefs bool
}

// Builder converts an OpenAPI operation request body into a form model.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	if options.Labeler == nil {
		options.Labeler = model.DefaultLabeler
	}
	return &Builder{opts: options}
}

// Load parses and validates an OpenAPI document.
func (b *Builder) Load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errDocumentEmpty
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: b.opts.AllowExternalRefs,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// BuildForm loads raw and builds the form model for operationID.
func (b *Builder) BuildForm(ctx context.Context, raw []byte, operationID string) (model.FormModel, error) {
	if strings.TrimSpace(operationID) == "" {
		return model.FormModel{}, errOperationIDMissing
	}
	doc, err := b.Load(ctx, raw)
	if err != nil {
		return model.FormModel{}, err
	}

	method, path, op := findOperation(doc, operationID)
	if op == nil {
		return model.FormModel{}, fmt.Errorf("openapi: operation %q not found", operationID)
	}

	schemaRef := requestSchema(op.RequestBody)
	if schemaRef == nil || schemaRef.Value == nil {
		return model.FormModel{}, fmt.Errorf("openapi: operation %q has no request body schema", operationID)
	}

	form := model.FormModel{
		OperationID: operationID,
		Endpoint:    path,
		Method:      method,
		Summary:     op.Summary,
		Description: op.Description,
		Metadata:    map[string]string{},
	}
	if op.Summary != "" {
		form.Metadata["summary"] = op.Summary
	}
	if op.Description != "" {
		form.Metadata["description"] = op.Description
	}
	if len(form.Metadata) == 0 {
		form.Metadata = nil
	}

	fields, err := b.fieldsFromObject(schemaRef.Value)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}
	form.Fields = fields
	return form, nil
}

func findOperation(doc *openapi3.T, operationID string) (string, string, *openapi3.Operation) {
	if doc == nil || doc.Paths == nil {
		return "", "", nil
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return strings.ToUpper(method), path, op
			}
		}
	}
	return "", "", nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	for _, mt := range content {
		if mt != nil {
			return mt.Schema
		}
	}
	return nil
}

func (b *Builder) fieldsFromObject(schema *openapi3.Schema) ([]model.Field, error) {
	if len(schema.Properties) == 0 {
		return nil, errors.New("request body schema has no properties")
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	fields := make([]model.Field, 0, len(schema.Properties))
	for _, name := range orderedProperties(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("property %q has an unresolved schema", name)
		}
		_, isRequired := required[name]
		field, err := b.fieldFromPrimitive(name, ref.Value, isRequired)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// orderedProperties follows x-field-order, then appends the remaining
// properties alphabetically.
func orderedProperties(schema *openapi3.Schema) []string {
	seen := make(map[string]struct{}, len(schema.Properties))
	var names []string

	if raw, ok := schema.Extensions[fieldOrderExtension].([]any); ok {
		for _, entry := range raw {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			if _, exists := schema.Properties[name]; !exists {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	var rest []string
	for name := range schema.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func (b *Builder) fieldFromPrimitive(name string, schema *openapi3.Schema, required bool) (model.Field, error) {
	fieldType, err := mapType(firstSchemaType(schema.Type))
	if err != nil {
		return model.Field{}, fmt.Errorf("property %q: %w", name, err)
	}

	label := strings.TrimSpace(schema.Title)
	if label == "" {
		label = b.opts.Labeler(name)
	}

	field := model.Field{
		Name:        name,
		Type:        fieldType,
		Format:      schema.Format,
		Required:    required,
		Label:       label,
		Description: schema.Description,
		Default:     schema.Default,
	}
	if err := applyValidations(&field, schema); err != nil {
		return model.Field{}, fmt.Errorf("property %q: %w", name, err)
	}

	metadata := metadataFromExtensions(schema.Extensions)
	if placeholder, ok := metadata["placeholder"]; ok {
		field.Placeholder = placeholder
		delete(metadata, "placeholder")
	}
	if len(metadata) > 0 {
		field.Metadata = metadata
	}
	return field, nil
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func mapType(schemaType string) (model.FieldType, error) {
	switch schemaType {
	case "", "string":
		return model.FieldTypeString, nil
	case "integer":
		return model.FieldTypeInteger, nil
	case "number":
		return model.FieldTypeNumber, nil
	case "boolean":
		return model.FieldTypeBoolean, nil
	default:
		return "", fmt.Errorf("unsupported field type %q", schemaType)
	}
}

func applyValidations(field *model.Field, schema *openapi3.Schema) error {
	if schema.Min != nil {
		field.Validations = append(field.Validations, model.ValidationRule{
			Kind:   model.ValidationRuleMin,
			Params: map[string]string{"value": formatFloat(*schema.Min)},
		})
	}
	if schema.Max != nil {
		field.Validations = append(field.Validations, model.ValidationRule{
			Kind:   model.ValidationRuleMax,
			Params: map[string]string{"value": formatFloat(*schema.Max)},
		})
	}
	if schema.MinLength != 0 {
		field.Validations = append(field.Validations, model.ValidationRule{
			Kind:   model.ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.FormatUint(schema.MinLength, 10)},
		})
	}
	if schema.MaxLength != nil {
		field.Validations = append(field.Validations, model.ValidationRule{
			Kind:   model.ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.FormatUint(*schema.MaxLength, 10)},
		})
	}
	if schema.Pattern != "" {
		// The validator evaluates patterns with regexp; reject what it cannot run.
		if _, err := regexp.Compile(schema.Pattern); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", schema.Pattern, err)
		}
		field.Validations = append(field.Validations, model.ValidationRule{
			Kind:   model.ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func metadataFromExtensions(ext map[string]any) map[string]string {
	raw, ok := ext[extensionNamespace].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" || value == nil {
			continue
		}
		out[key] = strings.TrimSpace(fmt.Sprint(value))
	}
	return out
}
