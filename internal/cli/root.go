// Package cli provides the command-line client for the profile form.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-profileform/internal/tui"
)

// ErrSubmissionFailed is returned by submit when the last attempt did not
// succeed. The reason has already been printed.
var ErrSubmissionFailed = errors.New("submission failed")

// Env carries the process dependencies of the commands so tests can swap
// the terminal.
type Env struct {
	Out    io.Writer
	Err    io.Writer
	Driver tui.PromptDriver
}

// NewRootCommand builds the command tree.
func NewRootCommand(env Env) *cobra.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	if env.Driver == nil {
		env.Driver = tui.NewSurveyDriver(env.Out)
	}

	root := &cobra.Command{
		Use:   "profileform-cli",
		Short: "Fill in and submit the profile form from a terminal",
		Long: `profileform-cli talks to a running profileform server.

It prompts for each field of the profile form, submits the values to the
server action and prints what the page would show: the success timestamp,
the field errors or the error banner.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	root.AddCommand(
		newSubmitCommand(env),
		newSchemaCommand(env),
		newTokenCommand(env),
		newProfilesCommand(env),
	)
	return root
}

// Execute runs the command tree against the process terminal and exits
// non-zero on failure.
func Execute() {
	if err := NewRootCommand(Env{}).Execute(); err != nil {
		if !errors.Is(err, ErrSubmissionFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
