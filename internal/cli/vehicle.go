package cli

import (
	"fmt"
	"io"

	"autolytiq-desk/internal/service"

	"github.com/spf13/cobra"
)

// NewReceiveVehicleCommand adds a vehicle to inventory
func NewReceiveVehicleCommand(rootOpts *RootOptions) *cobra.Command {
	var in service.ReceiveVehicleInput

	cmd := &cobra.Command{
		Use:   "receive-vehicle",
		Short: "Add a vehicle to inventory and assign its stock number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				v, err := a.inventory.ReceiveVehicle(cmd.Context(), in)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, v, func(w io.Writer) {
					fmt.Fprintf(w, "vehicle %s: %s %d %s %s (%s)\n", v.VehicleID, v.StockNumber, v.Year, v.Make, v.Model, v.Status)
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.TenantID, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&in.VIN, "vin", "", "17-character VIN (required)")
	cmd.Flags().StringVar(&in.Make, "make", "", "make (required)")
	cmd.Flags().StringVar(&in.Model, "model", "", "model (required)")
	cmd.Flags().IntVar(&in.Year, "year", 0, "model year (required)")
	return cmd
}
