package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		flags      connFlags
		jsonOutput bool
		columns    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "List the tables and columns of a database",
		Example: `  gennetta analyze --conn "Server=localhost,1433;Database=Shop;User Id=sa;Password=..."
  gennetta analyze -d postgres -c "Server=db;Database=shop;User Id=app" --prompt-password --columns
  gennetta analyze -d demo -c "Server=demo" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			snap, d, err := flags.analyze(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(model.AnalyzeResponse{
					Success:          true,
					Driver:           snap.Driver,
					Demo:             snap.Demo,
					ConnectionString: d.Masked(),
					Tables:           snap.Tables,
				})
			}

			header := color.New(color.FgCyan, color.Bold)
			header.Fprintf(out, "%s  %s\n", snap.Driver, d.Masked())
			if snap.Demo {
				color.New(color.FgYellow).Fprintln(out, "demo driver: sample schema, no database was contacted")
			}
			fmt.Fprintln(out)
			printTables(out, snap.Tables, columns)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the analysis as JSON")
	cmd.Flags().BoolVar(&columns, "columns", false, "List every column with its C# mapping")

	return cmd
}

// printTables writes a table summary, or one row per column when columns is set.
func printTables(out io.Writer, tables []model.TableDefinition, columns bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if !columns {
		fmt.Fprintln(w, "TABLE\tCOLUMNS\tPRIMARY KEY")
		for _, t := range tables {
			fmt.Fprintf(w, "%s\t%d\t%s\n", t.Name, len(t.Columns), strings.Join(t.PrimaryKey(), ", "))
		}
		w.Flush()
		return
	}

	fmt.Fprintln(w, "TABLE\tCOLUMN\tTYPE\tC#\tKEY")
	for _, t := range tables {
		for _, c := range t.Columns {
			key := ""
			if c.IsPrimaryKey {
				key = "PK"
			}
			cs := generator.MapSourceType(c.SourceType).CSharpType(c.Nullable)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Name, c.Name, c.SourceType, cs, key)
		}
	}
	w.Flush()
}
