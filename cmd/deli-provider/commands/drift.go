package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDriftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Replay every stored instance and report divergence",
		Long: `Replay every instance in the harness database through the provider's
Read operation and report any whose identifier or computed fields no
longer match what was stored. A clean state exits zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, cleanup, err := openHarness(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			drifts, err := h.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if len(drifts) == 0 {
				log.Info().Msg("No drift detected")
				return nil
			}
			for _, d := range drifts {
				log.Warn().
					Str("name", d.Name).
					Str("id", d.ID).
					Str("reason", d.Reason).
					Msg("Instance drifted")
			}
			return fmt.Errorf("%d instance(s) drifted", len(drifts))
		},
	}
	return cmd
}
