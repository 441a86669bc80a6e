package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-profileform/internal/config"
	"github.com/goliatone/go-profileform/pkg/store"
)

func newProfilesCommand(env Env) *cobra.Command {
	var (
		configPath string
		envFile    string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles, newest first",
		Long: `Open the store the server is configured with and list the most recent
profiles. Only SQL stores keep profiles across processes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return err
			}
			st, err := store.Open(cmd.Context(), store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
			if err != nil {
				return err
			}
			defer st.Close()

			profiles, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(env.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(profiles)
			}

			tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tAGE\tCREATED")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Email, p.Age, p.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&envFile, "env", ".env", "dotenv file")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of profiles")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	return cmd
}
