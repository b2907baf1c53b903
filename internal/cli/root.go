package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the deal-engine root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "deal-engine",
		Short: "Transactional deal engine for dealership desking",
		Long: `deal-engine runs deal, inventory and customer operations against PostgreSQL.

Every operation runs in one transaction with retry on transient failures.
Connection and transaction settings come from the environment (DB_*, TX_*, AUDIT_*).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAddTenantCommand(opts))
	cmd.AddCommand(NewAddCustomerCommand(opts))
	cmd.AddCommand(NewReceiveVehicleCommand(opts))
	cmd.AddCommand(NewCreateDealCommand(opts))
	cmd.AddCommand(NewTransitionDealCommand(opts))
	cmd.AddCommand(NewDeleteDealCommand(opts))
	cmd.AddCommand(NewBenchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
