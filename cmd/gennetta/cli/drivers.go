package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the database drivers GenNetta can analyze",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DRIVER\tLIVE\tDEFAULT")
			for _, d := range newRegistry(cfg, false).Drivers() {
				def := ""
				if d.Name == cfg.Drivers.Default {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%t\t%s\n", d.Name, d.Live, def)
			}
			return w.Flush()
		},
	}
}
