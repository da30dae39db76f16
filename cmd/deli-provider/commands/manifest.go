package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfroyo/provider-deli/pkg/manifest"
)

func newManifestCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the provider manifest",
		Long: `Print the provider manifest: metadata plus a JSON Schema document for
every kind the provider serves. Orchestrators consume the manifest to
validate configuration before invoking the provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := manifest.Default(version)
			if err := m.Validate(); err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			return m.Encode(os.Stdout)
		},
	}
	return cmd
}
