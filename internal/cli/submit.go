package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-profileform/internal/tui"
	"github.com/goliatone/go-profileform/pkg/client"
	"github.com/goliatone/go-profileform/pkg/formstate"
	"github.com/goliatone/go-profileform/pkg/openapi"
)

func newSubmitCommand(env Env) *cobra.Command {
	var (
		baseURL        string
		token          string
		noClientChecks bool
		timeout        time.Duration
		once           bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Prompt for the profile fields and submit them",
		Long: `Prompt for name, email, age and bio, then submit them to the server action.

With client validation on (the default) each answer is checked before the
next prompt. Pass --no-client-validation to send whatever is typed and let
the server report the errors.

Examples:
  profileform-cli submit
  profileform-cli submit --url https://profiles.example --token $TOKEN
  profileform-cli submit --no-client-validation --once

Exit Codes:
  0  Profile saved
  1  The last submission failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			form, err := openapi.ProfileForm(ctx)
			if err != nil {
				return err
			}

			state := formstate.New(form)
			state.SetClientValidation(!noClientChecks)
			prompter := tui.NewPrompter(env.Driver, nil)
			c := client.New(client.WithBaseURL(baseURL), client.WithToken(token), client.WithTimeout(timeout))

			for {
				if err := prompter.Fill(ctx, state); err != nil {
					return err
				}

				result, err := c.Submit(ctx, state)
				switch {
				case errors.Is(err, client.ErrBlocked):
				case err != nil:
					fmt.Fprintf(env.Err, "request failed: %v\n", err)
				}
				if reportErr := prompter.Report(ctx, state, result); reportErr != nil {
					return reportErr
				}
				if err == nil && result.Success {
					return nil
				}

				if once {
					return ErrSubmissionFailed
				}
				again, err := prompter.Retry(ctx)
				if err != nil {
					return err
				}
				if !again {
					return ErrSubmissionFailed
				}
			}
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token for servers that require one")
	cmd.Flags().BoolVar(&noClientChecks, "no-client-validation", false, "skip validation before submitting")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	cmd.Flags().BoolVar(&once, "once", false, "do not offer to retry after a failure")
	return cmd
}
