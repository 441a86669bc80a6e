package openapi

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-profileform/pkg/model"
)

func TestProfileFormFromEmbeddedDocument(t *testing.T) {
	t.Parallel()

	form, err := ProfileForm(context.Background())
	if err != nil {
		t.Fatalf("profile form: %v", err)
	}

	if form.Endpoint != "/actions/profile" || form.Method != "POST" {
		t.Fatalf("unexpected endpoint %s %s", form.Method, form.Endpoint)
	}
	if form.Summary != "Create profile" {
		t.Fatalf("summary = %q", form.Summary)
	}

	want := []model.Field{
		{
			Name:        "name",
			Type:        model.FieldTypeString,
			Required:    true,
			Label:       "Name",
			Placeholder: "Ada Lovelace",
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "2"}},
				{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "50"}},
			},
		},
		{
			Name:        "email",
			Type:        model.FieldTypeString,
			Format:      model.FormatEmail,
			Required:    true,
			Label:       "Email",
			Placeholder: "ada@example.com",
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "254"}},
			},
		},
		{
			Name:        "age",
			Type:        model.FieldTypeInteger,
			Required:    true,
			Label:       "Age",
			Placeholder: "36",
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "18"}},
				{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "120"}},
			},
		},
		{
			Name:        "bio",
			Type:        model.FieldTypeString,
			Label:       "Bio",
			Placeholder: "Mathematician and writer.",
			Description: "A short introduction, shown on your profile.",
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "280"}},
			},
			Metadata: map[string]string{"widget": "textarea"},
		},
	}
	if diff := cmp.Diff(want, form.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileFormReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	first := MustProfileForm()
	first.Fields[0].Label = "mutated"
	first.Fields[3].Metadata["widget"] = "input"

	second := MustProfileForm()
	if second.Fields[0].Label != "Name" {
		t.Fatalf("label leaked between copies: %q", second.Fields[0].Label)
	}
	if !second.Fields[3].Multiline() {
		t.Fatalf("metadata leaked between copies")
	}
}

func TestBuildFormOrdersUnlistedPropertiesAlphabetically(t *testing.T) {
	t.Parallel()

	const document = `
openapi: 3.0.3
info: {title: Order, version: 1.0.0}
paths:
  /submit:
    post:
      operationId: submit
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              x-field-order: [zeta, missing]
              properties:
                beta: {type: string}
                alpha_value: {type: number, pattern: "^[0-9]+$"}
                zeta: {type: boolean}
      responses:
        "200": {description: ok}
`

	form, err := New(Options{}).BuildForm(context.Background(), []byte(document), "submit")
	if err != nil {
		t.Fatalf("build form: %v", err)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha_value", "beta"}, form.FieldNames()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	alpha, _ := form.Field("alpha_value")
	if alpha.Label != "Alpha Value" {
		t.Fatalf("expected derived label, got %q", alpha.Label)
	}
	rule, ok := alpha.Rule(model.ValidationRulePattern)
	if !ok || rule.Params["pattern"] != "^[0-9]+$" {
		t.Fatalf("expected pattern rule, got %+v", alpha.Validations)
	}
}

func TestBuildFormErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		document    string
		operationID string
		want        string
	}{
		{
			name:        "missing operation id",
			document:    string(embeddedDocument),
			operationID: " ",
			want:        "operation id is required",
		},
		{
			name:        "empty document",
			operationID: ProfileOperationID,
			want:        "document payload is empty",
		},
		{
			name:        "unknown operation",
			document:    string(embeddedDocument),
			operationID: "deleteProfile",
			want:        `operation "deleteProfile" not found`,
		},
		{
			name: "no request body",
			document: `
openapi: 3.0.3
info: {title: Empty, version: 1.0.0}
paths:
  /ping:
    get:
      operationId: ping
      responses:
        "200": {description: ok}
`,
			operationID: "ping",
			want:        "has no request body schema",
		},
		{
			name: "nested object property",
			document: `
openapi: 3.0.3
info: {title: Nested, version: 1.0.0}
paths:
  /submit:
    post:
      operationId: submit
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                address:
                  type: object
                  properties:
                    street: {type: string}
      responses:
        "200": {description: ok}
`,
			operationID: "submit",
			want:        `unsupported field type "object"`,
		},
		{
			name: "invalid pattern",
			document: `
openapi: 3.0.3
info: {title: Pattern, version: 1.0.0}
paths:
  /submit:
    post:
      operationId: submit
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                code: {type: string, pattern: "[unclosed"}
      responses:
        "200": {description: ok}
`,
			operationID: "submit",
			want:        "pattern",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(Options{}).BuildForm(context.Background(), []byte(tt.document), tt.operationID)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestBuildFormHonoursCustomLabeler(t *testing.T) {
	t.Parallel()

	const document = `
openapi: 3.0.3
info: {title: Labels, version: 1.0.0}
paths:
  /submit:
    post:
      operationId: submit
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              properties:
                nickname: {type: string}
      responses:
        "200": {description: ok}
`

	builder := New(Options{Labeler: strings.ToUpper})
	form, err := builder.BuildForm(context.Background(), []byte(document), "submit")
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	if got := form.Fields[0].Label; got != "NICKNAME" {
		t.Fatalf("label = %q", got)
	}
}

func TestBuildFormRespectsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}).BuildForm(ctx, embeddedDocument, ProfileOperationID); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}

func TestApplyValidationsRejectsUncompilablePattern(t *testing.T) {
	t.Parallel()

	var field model.Field
	err := applyValidations(&field, &openapi3.Schema{Pattern: "(?=lookahead)"})
	if err == nil || !strings.Contains(err.Error(), "invalid pattern") {
		t.Fatalf("expected invalid pattern error, got %v", err)
	}
	if len(field.Validations) != 0 {
		t.Fatalf("rule kept for rejected pattern: %+v", field.Validations)
	}

	if err := applyValidations(&field, &openapi3.Schema{Pattern: `^[a-z]+$`}); err != nil {
		t.Fatalf("valid pattern: %v", err)
	}
	if len(field.Validations) != 1 || field.Validations[0].Kind != model.ValidationRulePattern {
		t.Fatalf("unexpected rules: %+v", field.Validations)
	}
}
