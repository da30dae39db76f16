package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/provider-deli/pkg/harness"
)

func newApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <plan>",
		Short: "Apply a plan against the local harness",
		Long: `Apply a YAML plan: create the resources it names, update the ones whose
attributes changed, and replace the ones whose identity changed.
Materialized instances are persisted in the harness database
(DELI_DB_PATH) so later runs are incremental.`,
		Example: `  # Materialize a store with its fixtures and staff
  deli-provider apply ./plans/store.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening plan: %w", err)
			}
			defer f.Close()

			plan, err := harness.LoadPlan(f)
			if err != nil {
				return err
			}

			h, cleanup, err := openHarness(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := h.Apply(cmd.Context(), plan); err != nil {
				return err
			}
			log.Info().Int("resources", len(plan.Resources)).Msg("Plan applied")
			return nil
		},
	}
	return cmd
}
