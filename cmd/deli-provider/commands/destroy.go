package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDestroyCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every instance in the harness database",
		Long: `Delete every stored instance, composites first, invoking the provider's
Delete operation for each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				log.Warn().Msg("Refusing to destroy without --yes")
				return nil
			}

			h, cleanup, err := openHarness(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := h.Destroy(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("State destroyed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm destruction")

	return cmd
}
