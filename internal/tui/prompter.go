// Package tui collects profile form values from a terminal and reports the
// outcome of a submission.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/formstate"
	"github.com/goliatone/go-profileform/pkg/model"
	"github.com/goliatone/go-profileform/pkg/validation"
)

// Prompter asks for every field of a form state through a PromptDriver.
type Prompter struct {
	driver    PromptDriver
	validator *validation.Validator
}

// NewPrompter wires driver and v. A nil validator uses validation.New.
func NewPrompter(driver PromptDriver, v *validation.Validator) *Prompter {
	if v == nil {
		v = validation.New()
	}
	return &Prompter{driver: driver, validator: v}
}

// Fill prompts for each field in form order and stores the answers on state.
// Current values are offered as defaults, so a retry only needs the fields
// that changed. With client validation on, answers are checked per field
// before the next prompt.
func (p *Prompter) Fill(ctx context.Context, state *formstate.State) error {
	if p.driver == nil {
		return errors.New("tui: prompt driver is nil")
	}
	values := state.Values()
	errs := state.FieldErrors()

	for _, field := range state.Form().Fields {
		var check func(string) error
		if state.ClientValidation() {
			check = p.fieldCheck(field)
		}

		q := Question{
			Message: promptMessage(field),
			Default: values[field.Name],
			Help:    promptHelp(field, errs[field.Name]),
			Check:   check,
		}
		ask := p.driver.Ask
		if field.Multiline() {
			ask = p.driver.AskText
		}
		answer, err := ask(ctx, q)
		if err != nil {
			return err
		}
		if err := state.SetField(field.Name, strings.TrimSpace(answer)); err != nil {
			return err
		}
	}
	return nil
}

// Retry asks whether to edit the values and submit again.
func (p *Prompter) Retry(ctx context.Context) (bool, error) {
	return p.driver.Confirm(ctx, "Edit and submit again?", true)
}

// Report prints what the page would show after a submission: the success
// timestamp, field errors, or the banner.
func (p *Prompter) Report(ctx context.Context, state *formstate.State, result action.Result) error {
	if result.Success {
		return p.driver.Info(ctx, fmt.Sprintf("Profile saved at %s (id %s).",
			state.SubmittedAt().Format("2006-01-02 15:04:05 MST"), result.SubmissionID))
	}

	var lines []string
	for _, message := range state.Banner() {
		lines = append(lines, "! "+message)
	}
	form := state.Form()
	fieldErrs := state.FieldErrors()
	for _, name := range validation.SortedFields(fieldErrs) {
		label := name
		if field, ok := form.Field(name); ok && field.Label != "" {
			label = field.Label
		}
		for _, message := range fieldErrs[name] {
			lines = append(lines, fmt.Sprintf("  %s: %s", label, message))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "! "+action.GenericMessage)
	}
	return p.driver.Info(ctx, strings.Join(lines, "\n"))
}

func (p *Prompter) fieldCheck(field model.Field) func(string) error {
	return func(answer string) error {
		messages := p.validator.ValidateField(field, strings.TrimSpace(answer))
		if len(messages) == 0 {
			return nil
		}
		return errors.New(strings.Join(messages, "; "))
	}
}

func promptMessage(field model.Field) string {
	label := field.Label
	if label == "" {
		label = model.DefaultLabeler(field.Name)
	}
	if field.Required {
		return label + " *"
	}
	return label
}

func promptHelp(field model.Field, errs []string) string {
	var parts []string
	if len(errs) > 0 {
		parts = append(parts, strings.Join(errs, "; "))
	}
	if field.Description != "" {
		parts = append(parts, field.Description)
	}
	if field.Placeholder != "" {
		parts = append(parts, "e.g. "+field.Placeholder)
	}
	return strings.Join(parts, " | ")
}
