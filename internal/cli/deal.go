package cli

import (
	"fmt"
	"io"
	"strings"

	"autolytiq-desk/internal/domain"
	"autolytiq-desk/internal/service"

	"github.com/spf13/cobra"
)

type createDealOptions struct {
	*RootOptions
	TenantID      string
	SalespersonID string
	CustomerID    string
	VehicleID     string
	State         string

	ScenarioType string
	ScenarioName string
	Price        string
	DownPayment  string
	TradeIn      string
	Rate         string
	Term         int
}

// input builds the service request; unset optional flags stay nil
func (o *createDealOptions) input(cmd *cobra.Command) service.CreateDealInput {
	in := service.CreateDealInput{
		TenantID:      o.TenantID,
		SalespersonID: o.SalespersonID,
		InitialState:  domain.DealState(strings.ToUpper(o.State)),
	}
	if o.CustomerID != "" {
		in.CustomerID = &o.CustomerID
	}
	if o.VehicleID != "" {
		in.VehicleID = &o.VehicleID
	}

	flags := cmd.Flags()
	var data service.ScenarioData
	set := false
	if flags.Changed("type") {
		t := domain.ScenarioType(strings.ToLower(o.ScenarioType))
		data.ScenarioType, set = &t, true
	}
	if flags.Changed("scenario-name") {
		data.Name, set = &o.ScenarioName, true
	}
	if flags.Changed("price") {
		data.VehiclePrice, set = &o.Price, true
	}
	if flags.Changed("down") {
		data.DownPayment, set = &o.DownPayment, true
	}
	if flags.Changed("trade-in") {
		data.TradeInValue, set = &o.TradeIn, true
	}
	if flags.Changed("rate") {
		data.InterestRate, set = &o.Rate, true
	}
	if flags.Changed("term") {
		data.TermMonths, set = &o.Term, true
	}
	if set {
		in.ScenarioData = &data
	}
	return in
}

// NewCreateDealCommand creates a deal with its first scenario
func NewCreateDealCommand(rootOpts *RootOptions) *cobra.Command {
	return newCreateDealCommand(&createDealOptions{RootOptions: rootOpts})
}

func newCreateDealCommand(opts *createDealOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-deal",
		Short: "Create a deal with its initial scenario",
		Long: `Create a deal in one transaction: resolve the customer and lock the vehicle,
assign a deal number unless the deal starts as DRAFT, insert the deal and its
first scenario, and move the vehicle to in-deal.

Example:
  deal-engine create-deal --tenant $TENANT --salesperson $SP --vehicle $VEHICLE --state PENDING --price 25999`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := opts.input(cmd)
			return withApp(cmd.Context(), opts.RootOptions, func(a *app) error {
				res, err := a.deals.CreateDeal(cmd.Context(), in)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
					fmt.Fprintf(w, "deal %s state=%s number=%s\n", res.Deal.DealID, res.Deal.State, deref(res.Deal.DealNumber))
					fmt.Fprintf(w, "scenario %s %s price=%s down=%s term=%d\n",
						res.Scenario.ScenarioID, res.Scenario.ScenarioType, res.Scenario.VehiclePrice, res.Scenario.DownPayment, res.Scenario.TermMonths)
					if res.Vehicle != nil {
						fmt.Fprintf(w, "vehicle %s status=%s\n", res.Vehicle.VehicleID, res.Vehicle.Status)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.TenantID, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&opts.SalespersonID, "salesperson", "", "salesperson UUID (required)")
	cmd.Flags().StringVar(&opts.CustomerID, "customer", "", "customer UUID")
	cmd.Flags().StringVar(&opts.VehicleID, "vehicle", "", "vehicle UUID")
	cmd.Flags().StringVar(&opts.State, "state", string(domain.DealDraft), "initial state (DRAFT|PENDING|SOLD)")
	cmd.Flags().StringVar(&opts.ScenarioType, "type", "", "scenario type (finance|lease|cash)")
	cmd.Flags().StringVar(&opts.ScenarioName, "scenario-name", "", "scenario name")
	cmd.Flags().StringVar(&opts.Price, "price", "", "vehicle price")
	cmd.Flags().StringVar(&opts.DownPayment, "down", "", "down payment")
	cmd.Flags().StringVar(&opts.TradeIn, "trade-in", "", "trade-in value")
	cmd.Flags().StringVar(&opts.Rate, "rate", "", "interest rate, percent")
	cmd.Flags().IntVar(&opts.Term, "term", service.DefaultTermMonths, "term in months")
	return cmd
}

// NewTransitionDealCommand moves a deal to another state
func NewTransitionDealCommand(rootOpts *RootOptions) *cobra.Command {
	var tenantID, dealID, to string

	cmd := &cobra.Command{
		Use:   "transition-deal",
		Short: "Move a deal to PENDING, SOLD or CANCELLED",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				deal, err := a.deals.TransitionDeal(cmd.Context(), tenantID, dealID, domain.DealState(strings.ToUpper(to)))
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, deal, func(w io.Writer) {
					fmt.Fprintf(w, "deal %s state=%s number=%s\n", deal.DealID, deal.State, deref(deal.DealNumber))
				})
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&dealID, "deal", "", "deal UUID (required)")
	cmd.Flags().StringVar(&to, "to", "", "target state (required)")
	return cmd
}

// NewDeleteDealCommand deletes a deal and releases its vehicle
func NewDeleteDealCommand(rootOpts *RootOptions) *cobra.Command {
	var tenantID, dealID string

	cmd := &cobra.Command{
		Use:   "delete-deal",
		Short: "Delete a deal and its scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				if err := a.deals.DeleteDeal(cmd.Context(), tenantID, dealID); err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, map[string]string{"deleted": dealID}, func(w io.Writer) {
					fmt.Fprintf(w, "deal %s deleted\n", dealID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&dealID, "deal", "", "deal UUID (required)")
	return cmd
}
