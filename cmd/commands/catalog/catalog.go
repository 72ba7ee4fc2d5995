package catalog

import (
	"fmt"
	"text/tabwriter"

	catalogpkg "nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/spf13/cobra"
)

// NewCommand returns the "catalog" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the endpoint catalog",
		Long: `Show the API endpoints used by provisioning stages and the
connectivity checks run by 'gcpm probe'.

The catalog comes from --catalog, the catalog-file config key, or the
built-in default, in that order.

Examples:
  gcpm catalog
  gcpm catalog --catalog ./staging.yaml -o json`,
		Args:         cobra.NoArgs,
		RunE:         runCatalog,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

// catalogOutput is the JSON shape printed by -o json.
type catalogOutput struct {
	Endpoints catalogpkg.Endpoints `json:"endpoints"`
	Checks    []domain.CheckSpec   `json:"checks"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if err := cliutil.CheckOutput(output, "table", "json"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cat, err := cliutil.LoadCatalog(cmd, cfg)
	if err != nil {
		return err
	}

	if output == "json" {
		return cliutil.PrintJSON(cmd, catalogOutput{Endpoints: cat.Endpoints(), Checks: cat.Checks()})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tURL")
	fmt.Fprintln(w, "--------\t---")
	for _, kv := range cat.Endpoints().Fields() {
		fmt.Fprintf(w, "%s\t%s\n", kv[0], kv[1])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CHECK\tURL TEMPLATE")
	fmt.Fprintln(w, "-----\t------------")
	for _, c := range cat.Checks() {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, c.URLTemplate)
	}
	return w.Flush()
}
