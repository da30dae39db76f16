package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/schema"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kind> <file>",
		Short: "Validate an attribute document against a kind's schema",
		Long: `Validate a YAML or JSON attribute document against the schema of a
resource kind. Defaults are applied and cross-field rules checked, the
same way a lifecycle call would.`,
		Example: `  # Validate a bread definition
  deli-provider validate deli.bread ./bread.yaml

  # Validate a bag
  deli-provider validate deli.bag ./bag.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := deli.Kind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown kind %q", args[0])
			}

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}
			var attrs map[string]any
			if err := yaml.Unmarshal(raw, &attrs); err != nil {
				return fmt.Errorf("decoding %s: %w", args[1], err)
			}

			registry, err := schema.NewRegistry()
			if err != nil {
				return err
			}
			if kind.IsDataSource() {
				if _, err := registry.NormalizeMenuParams(attrs); err != nil {
					return err
				}
			} else if _, err := registry.Normalize(kind, attrs); err != nil {
				return err
			}

			log.Info().Str("kind", string(kind)).Str("file", args[1]).Msg("Document is valid")
			return nil
		},
	}
	return cmd
}
