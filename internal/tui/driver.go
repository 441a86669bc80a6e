package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("tui: aborted")

// Question is a free-text prompt. Check, when set, rejects an answer and
// asks again.
type Question struct {
	Message string
	Default string
	Help    string
	Check   func(string) error
}

// PromptDriver is the terminal seen by the prompter. Tests script it.
type PromptDriver interface {
	Ask(ctx context.Context, q Question) (string, error)
	AskText(ctx context.Context, q Question) (string, error)
	AskSecret(ctx context.Context, q Question) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver prompts on the process terminal with survey. Info lines go
// to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, q Question) (string, error) {
	return askString(ctx, &survey.Input{Message: q.Message, Default: q.Default, Help: q.Help}, q.Check)
}

func (d *surveyDriver) AskText(ctx context.Context, q Question) (string, error) {
	return askString(ctx, &survey.Multiline{Message: q.Message, Default: q.Default, Help: q.Help}, q.Check)
}

// AskSecret ignores q.Default; survey never echoes passwords.
func (d *surveyDriver) AskSecret(ctx context.Context, q Question) (string, error) {
	return askString(ctx, &survey.Password{Message: q.Message, Help: q.Help}, q.Check)
}

func (d *surveyDriver) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var yes bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &yes); err != nil {
		return false, surveyErr(err)
	}
	return yes, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func askString(ctx context.Context, prompt survey.Prompt, check func(string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var opts []survey.AskOpt
	if check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return check(s)
		}))
	}
	var answer string
	if err := survey.AskOne(prompt, &answer, opts...); err != nil {
		return "", surveyErr(err)
	}
	return answer, nil
}

func surveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
