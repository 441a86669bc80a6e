package formstate_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/formstate"
	"github.com/goliatone/go-profileform/pkg/openapi"
	"github.com/goliatone/go-profileform/pkg/validation"
)

func filledState(t *testing.T) *formstate.State {
	t.Helper()
	state := formstate.New(openapi.MustProfileForm())
	for name, value := range map[string]string{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
		"age":   "36",
		"bio":   "Mathematician and writer.",
	} {
		if err := state.SetField(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	return state
}

func TestNewStateDefaults(t *testing.T) {
	state := formstate.New(openapi.MustProfileForm())

	want := map[string]string{"name": "", "email": "", "age": "", "bio": ""}
	if diff := cmp.Diff(want, state.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if !state.ClientValidation() {
		t.Fatalf("client validation should default to on")
	}
	if state.Pending() || len(state.Banner()) != 0 || state.FieldErrors() != nil {
		t.Fatalf("new state should be idle and clean")
	}
}

func TestSetFieldRejectsUnknownField(t *testing.T) {
	state := formstate.New(openapi.MustProfileForm())
	if err := state.SetField("nickname", "ada"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestBeginAllowsOneSubmission(t *testing.T) {
	state := filledState(t)
	if !state.Begin() {
		t.Fatalf("first Begin should succeed")
	}
	if state.Begin() {
		t.Fatalf("second Begin should be refused while pending")
	}
	state.Apply(action.Succeeded("id-1", time.Now()))
	if !state.Begin() {
		t.Fatalf("Begin should succeed after the result was applied")
	}
}

func TestBeginIsExclusiveUnderConcurrency(t *testing.T) {
	state := filledState(t)
	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if state.Begin() {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := started.Load(); got != 1 {
		t.Fatalf("started = %d, want 1", got)
	}
}

func TestApplySuccessResetsForm(t *testing.T) {
	state := filledState(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	state.Begin()
	state.Apply(action.Succeeded("id-1", at))

	if !state.SubmittedAt().Equal(at) {
		t.Fatalf("submitted at = %v", state.SubmittedAt())
	}
	if diff := cmp.Diff(map[string]string{"name": "", "email": "", "age": "", "bio": ""}, state.Values()); diff != "" {
		t.Fatalf("values not reset (-want +got):\n%s", diff)
	}
	if state.Pending() {
		t.Fatalf("pending should be cleared")
	}
}

func TestApplyValidationSetsFieldErrors(t *testing.T) {
	state := filledState(t)
	state.Begin()
	state.Apply(action.ValidationFailed(map[string][]string{
		"email":      {action.DuplicateEmail},
		"body.age":   {"Age must be at least 18"},
		"__all__":    {"Please review the form"},
		"unexpected": {"Server rejected an unknown field"},
	}))

	want := map[string][]string{
		"email": {action.DuplicateEmail},
		"age":   {"Age must be at least 18"},
	}
	if diff := cmp.Diff(want, state.FieldErrors()); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Please review the form", "Server rejected an unknown field"}, state.Banner()); diff != "" {
		t.Fatalf("banner mismatch (-want +got):\n%s", diff)
	}
	if got := state.Values()["email"]; got != "ada@example.com" {
		t.Fatalf("values should be kept on failure, email = %q", got)
	}
	if state.Pending() {
		t.Fatalf("pending should be cleared")
	}
}

func TestApplyBannerFailures(t *testing.T) {
	cases := []struct {
		name   string
		result action.Result
		want   string
	}{
		{"database", action.DatabaseFailed(action.DatabaseMessage), action.DatabaseMessage},
		{"permission", action.PermissionDenied("Profile submissions are temporarily disabled."), "Profile submissions are temporarily disabled."},
		{"unknown", action.UnknownFailure(action.GenericMessage), action.GenericMessage},
		{"empty message", action.DatabaseFailed(""), action.GenericMessage},
		{"missing error record", action.Result{}, action.GenericMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := filledState(t)
			state.Begin()
			state.Apply(action.ValidationFailed(map[string][]string{"name": {"Name is required"}}))
			state.Begin()
			state.Apply(tc.result)

			if diff := cmp.Diff([]string{tc.want}, state.Banner()); diff != "" {
				t.Fatalf("banner mismatch (-want +got):\n%s", diff)
			}
			if state.FieldErrors() != nil {
				t.Fatalf("field errors should be cleared, got %v", state.FieldErrors())
			}
		})
	}
}

func TestFailShowsGenericBanner(t *testing.T) {
	state := filledState(t)
	state.Begin()
	state.Fail(errors.New("connection refused"))

	if diff := cmp.Diff([]string{action.GenericMessage}, state.Banner()); diff != "" {
		t.Fatalf("banner mismatch (-want +got):\n%s", diff)
	}
	if state.Pending() {
		t.Fatalf("pending should be cleared")
	}
	if got := state.Values()["name"]; got != "Ada Lovelace" {
		t.Fatalf("values should be kept, name = %q", got)
	}
}

func TestCheckClientBlocksInvalidInputOnlyWhenEnabled(t *testing.T) {
	v := validation.New()
	state := formstate.New(openapi.MustProfileForm())
	_ = state.SetField("name", "A")
	_ = state.SetField("email", "not-an-email")
	_ = state.SetField("age", "12")

	if state.CheckClient(v) {
		t.Fatalf("expected client validation to block invalid input")
	}
	want := map[string][]string{
		"name":  {"Name must be at least 2 characters"},
		"email": {"Email must be a valid email address"},
		"age":   {"Age must be at least 18"},
	}
	if diff := cmp.Diff(want, state.FieldErrors()); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	if enabled := state.ToggleClientValidation(); enabled {
		t.Fatalf("toggle should turn client validation off")
	}
	if !state.CheckClient(v) {
		t.Fatalf("client validation off should always pass")
	}
}

func TestCheckClientPassesValidInput(t *testing.T) {
	state := filledState(t)
	if !state.CheckClient(nil) {
		t.Fatalf("valid values should pass, errors: %v", state.FieldErrors())
	}
	if state.FieldErrors() != nil {
		t.Fatalf("field errors should be cleared")
	}
}

func TestResetKeepsClientValidationSetting(t *testing.T) {
	state := filledState(t)
	state.SetClientValidation(false)
	state.Begin()
	state.Apply(action.DatabaseFailed(action.DatabaseMessage))
	state.Reset()

	if state.ClientValidation() {
		t.Fatalf("reset should keep client validation off")
	}
	if len(state.Banner()) != 0 || state.Values()["name"] != "" {
		t.Fatalf("reset should clear banner and values")
	}
}

func TestPageDataSnapshot(t *testing.T) {
	state := filledState(t)
	state.Begin()
	data := state.PageData()

	if !data.Pending || !data.ClientValidation {
		t.Fatalf("page data flags = pending %v, client validation %v", data.Pending, data.ClientValidation)
	}
	data.Values["name"] = "changed"
	if state.Values()["name"] != "Ada Lovelace" {
		t.Fatalf("page data should not alias state values")
	}
	if got := state.FormValues().Get("age"); got != "36" {
		t.Fatalf("form values age = %q", got)
	}
}
