package cli

import (
	"fmt"
	"io"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type addTenantOptions struct {
	*RootOptions
	ID   string
	Name string
}

// NewAddTenantCommand registers (or renames) a tenant
func NewAddTenantCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &addTenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-tenant",
		Short: "Register a dealership tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ID == "" {
				opts.ID = uuid.NewString()
			} else if _, err := uuid.Parse(opts.ID); err != nil {
				return apperrors.Validation("tenant_id", "must be a UUID, got %q", opts.ID)
			}
			if opts.Name == "" {
				return apperrors.Validation("name", "is required")
			}
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				if err := repository.NewPostgresTenantsRepo(a.db).EnsureTenant(cmd.Context(), opts.ID, opts.Name); err != nil {
					return err
				}
				out := map[string]string{"tenant_id": opts.ID, "name": opts.Name}
				return writeOutput(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) {
					fmt.Fprintf(w, "tenant %s (%s)\n", opts.ID, opts.Name)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "tenant UUID (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "tenant display name (required)")
	return cmd
}
