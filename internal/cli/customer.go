package cli

import (
	"fmt"
	"io"

	"autolytiq-desk/internal/service"

	"github.com/spf13/cobra"
)

// NewAddCustomerCommand creates a customer
func NewAddCustomerCommand(rootOpts *RootOptions) *cobra.Command {
	var in service.CreateCustomerInput

	cmd := &cobra.Command{
		Use:   "add-customer",
		Short: "Create a customer under a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				c, err := a.customers.CreateCustomer(cmd.Context(), in)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, c, func(w io.Writer) {
					fmt.Fprintf(w, "customer %s: %s %s\n", c.CustomerID, c.FirstName, c.LastName)
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.TenantID, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name (required)")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	return cmd
}
