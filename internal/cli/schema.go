package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-profileform/pkg/openapi"
)

func newSchemaCommand(env Env) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the profile form model as JSON",
		Long: `Print the form model built from the embedded OpenAPI document: field
order, labels, placeholders and validation rules.

Pass --openapi to print the OpenAPI document itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if raw {
				_, err := env.Out.Write(openapi.DocumentBytes())
				return err
			}
			form, err := openapi.ProfileForm(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(env.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(form)
		},
	}
	cmd.Flags().BoolVar(&raw, "openapi", false, "print the OpenAPI document instead of the form model")
	return cmd
}
