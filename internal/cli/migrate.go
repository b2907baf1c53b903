package cli

import (
	"fmt"
	"io"

	"autolytiq-desk/internal/database"

	"github.com/spf13/cobra"
)

// NewMigrateCommand applies the embedded schema
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				if err := database.Migrate(cmd.Context(), a.db); err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, map[string]string{"status": "ok"}, func(w io.Writer) {
					fmt.Fprintln(w, "schema applied")
				})
			})
		},
	}
}
