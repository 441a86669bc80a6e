package formstate

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/model"
	"github.com/goliatone/go-profileform/pkg/render"
	"github.com/goliatone/go-profileform/pkg/validation"
)

// ErrPending is returned by callers that refuse to start a submission while
// another one is in flight.
var ErrPending = errors.New("formstate: submission already pending")

// State is the client-side bookkeeping of one form. It is safe for
// concurrent use.
type State struct {
	mu sync.Mutex

	form             model.FormModel
	values           map[string]string
	fieldErrors      map[string][]string
	banner           []string
	submittedAt      time.Time
	pending          bool
	clientValidation bool
}

// New returns an idle state with default values and client validation on.
func New(form model.FormModel) *State {
	s := &State{form: form, clientValidation: true}
	s.values = defaults(form)
	return s
}

// Form returns the form model the state was built for.
func (s *State) Form() model.FormModel {
	return s.form
}

// Values returns a copy of the current field values.
func (s *State) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyValues(s.values)
}

// FieldErrors returns a copy of the per-field messages.
func (s *State) FieldErrors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyErrors(s.fieldErrors)
}

// Banner returns the form-level messages.
func (s *State) Banner() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.banner...)
}

// SubmittedAt returns the timestamp of the last successful submission.
func (s *State) SubmittedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submittedAt
}

// FormValues encodes the current values for a form-encoded request.
func (s *State) FormValues() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(url.Values, len(s.values))
	for _, field := range s.form.Fields {
		out.Set(field.Name, s.values[field.Name])
	}
	return out
}

// Pending reports whether a submission is in flight.
func (s *State) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ClientValidation reports whether values are checked before submitting.
func (s *State) ClientValidation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientValidation
}

// SetField stores the value of a known field.
func (s *State) SetField(name, value string) error {
	if _, ok := s.form.Field(name); !ok {
		return fmt.Errorf("formstate: unknown field %q", name)
	}
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
	return nil
}

// SetClientValidation turns client validation on or off.
func (s *State) SetClientValidation(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientValidation = enabled
}

// ToggleClientValidation flips client validation and returns the new value.
func (s *State) ToggleClientValidation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientValidation = !s.clientValidation
	return s.clientValidation
}

// Begin marks a submission as in flight. It returns false when one already
// is, in which case the caller must not submit.
func (s *State) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return false
	}
	s.pending = true
	s.banner = nil
	return true
}

// CheckClient runs v against the current values when client validation is
// on. On failure the field errors are set and false is returned, so no
// request should be sent. It always passes when client validation is off.
func (s *State) CheckClient(v *validation.Validator) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clientValidation {
		return true
	}
	if v == nil {
		v = validation.New()
	}

	input := make(map[string]any, len(s.values))
	for name, value := range s.values {
		input[name] = value
	}
	errs := v.Validate(s.form, input)
	if len(errs) == 0 {
		s.fieldErrors = nil
		return true
	}
	s.fieldErrors = errs
	s.submittedAt = time.Time{}
	return false
}

// Apply records the outcome of a submission and clears the pending flag.
func (s *State) Apply(result action.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false

	if result.Success {
		s.values = defaults(s.form)
		s.fieldErrors = nil
		s.banner = nil
		s.submittedAt = result.SubmittedAt
		return
	}

	s.submittedAt = time.Time{}
	failure := result.Error
	if failure == nil {
		s.fieldErrors = nil
		s.banner = []string{action.GenericMessage}
		return
	}

	if failure.Type == action.ErrorTypeValidation {
		mapped := render.MapErrorPayload(s.form, failure.Fields)
		s.fieldErrors = mapped.Fields
		s.banner = mapped.Form
		return
	}

	s.fieldErrors = nil
	message := failure.Message
	if message == "" {
		message = action.GenericMessage
	}
	s.banner = []string{message}
}

// Fail records a submission that never produced a result, such as a
// transport or decode error. The values are kept so the user can retry.
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	s.fieldErrors = nil
	s.submittedAt = time.Time{}
	s.banner = []string{action.GenericMessage}
}

// Reset restores defaults and clears every message. The client validation
// setting is kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = defaults(s.form)
	s.fieldErrors = nil
	s.banner = nil
	s.submittedAt = time.Time{}
	s.pending = false
}

// PageData snapshots the state for the page renderer.
func (s *State) PageData() render.PageData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.PageData{
		Form:             s.form,
		Values:           copyValues(s.values),
		FieldErrors:      copyErrors(s.fieldErrors),
		Banner:           append([]string(nil), s.banner...),
		SubmittedAt:      s.submittedAt,
		Pending:          s.pending,
		ClientValidation: s.clientValidation,
	}
}

func defaults(form model.FormModel) map[string]string {
	values := make(map[string]string, len(form.Fields))
	for _, field := range form.Fields {
		if field.Default != nil {
			values[field.Name] = fmt.Sprint(field.Default)
			continue
		}
		values[field.Name] = ""
	}
	return values
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyErrors(in map[string][]string) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for key, messages := range in {
		out[key] = append([]string(nil), messages...)
	}
	return out
}
