package openapi

import (
	"context"
	_ "embed"
	"sync"

	"github.com/goliatone/go-profileform/pkg/model"
)

// ProfileOperationID identifies the server action inside the embedded document.
const ProfileOperationID = "submitProfile"

//go:embed profile.openapi.yaml
var embeddedDocument []byte

var (
	profileFormOnce sync.Once
	profileForm     model.FormModel
	profileFormErr  error
)

// DocumentBytes returns a copy of the embedded OpenAPI document.
func DocumentBytes() []byte {
	return append([]byte(nil), embeddedDocument...)
}

// ProfileForm builds the profile form model from the embedded document. The
// result is computed once and shared; callers receive a deep copy.
func ProfileForm(ctx context.Context) (model.FormModel, error) {
	profileFormOnce.Do(func() {
		profileForm, profileFormErr = New(Options{}).BuildForm(context.WithoutCancel(ctx), embeddedDocument, ProfileOperationID)
	})
	if profileFormErr != nil {
		return model.FormModel{}, profileFormErr
	}
	return cloneForm(profileForm), nil
}

// MustProfileForm panics when the embedded document cannot be converted. The
// document ships with the binary, so a failure is a programming error.
func MustProfileForm() model.FormModel {
	form, err := ProfileForm(context.Background())
	if err != nil {
		panic(err)
	}
	return form
}

func cloneForm(form model.FormModel) model.FormModel {
	out := form
	out.Metadata = cloneStringMap(form.Metadata)
	out.Fields = make([]model.Field, len(form.Fields))
	for i, field := range form.Fields {
		copied := field
		copied.Metadata = cloneStringMap(field.Metadata)
		if len(field.Validations) > 0 {
			copied.Validations = make([]model.ValidationRule, len(field.Validations))
			for j, rule := range field.Validations {
				copied.Validations[j] = model.ValidationRule{Kind: rule.Kind, Params: cloneStringMap(rule.Params)}
			}
		}
		out.Fields[i] = copied
	}
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
