package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/harness"
	"github.com/openfroyo/provider-deli/pkg/provider"
)

func newMenuCommand() *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the priced menu snapshot",
		Long: `Print the price of every priced catalog entry under the configured
upcharge (DELI_UPCHARGE). This invokes the deli.menu data source.`,
		Example: `  # Full menu
  deli-provider menu

  # Breads and meats only, with a one-dollar upcharge
  DELI_UPCHARGE=1.00 deli-provider menu --types bread,meat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := harness.LoadConfig()
			if err != nil {
				return err
			}
			p, err := provider.New()
			if err != nil {
				return err
			}

			params := map[string]any{}
			if len(types) > 0 {
				filter := make([]any, len(types))
				for i, t := range types {
					filter[i] = t
				}
				params["types"] = filter
			}

			resp, err := p.Describe(cmd.Context(), provider.DescribeRequest{
				Name:     deli.KindMenu,
				Settings: provider.Settings{Upcharge: cfg.UpchargeDecimal()},
				Params:   params,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp.Computed)
			}

			keys := make([]string, 0, len(resp.Computed))
			for k := range resp.Computed {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				price, _ := resp.Computed.Decimal(k)
				fmt.Printf("%-24s %8s\n", k, price.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&types, "types", nil, "restrict to the named kinds (bread, meat, drink, side)")

	return cmd
}
