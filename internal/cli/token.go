package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-profileform/internal/tui"
	"github.com/goliatone/go-profileform/pkg/action"
)

func newTokenCommand(env Env) *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
		scopes  []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token accepted by a server with a JWT secret",
		Long: `Issue an HS256 token for servers started with PROFILEFORM_JWT_SECRET.

The secret defaults to $PROFILEFORM_JWT_SECRET and is prompted for when
neither is set.

Examples:
  profileform-cli token --subject ada
  profileform-cli submit --token "$(profileform-cli token --subject ada)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("PROFILEFORM_JWT_SECRET")
			}
			if secret == "" {
				answer, err := env.Driver.AskSecret(cmd.Context(), tui.Question{
					Message: "JWT secret",
					Help:    "The PROFILEFORM_JWT_SECRET the server was started with",
				})
				if err != nil {
					return err
				}
				secret = strings.TrimSpace(answer)
			}
			if secret == "" {
				return errors.New("token: a secret is required")
			}
			token, err := action.IssueToken(secret, subject, scopes, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(env.Out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret shared with the server")
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{action.WriteScope}, "granted scopes")
	return cmd
}
