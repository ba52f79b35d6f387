package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
)

func newGenerateCmd() *cobra.Command {
	var (
		flags   connFlags
		tables  []string
		all     bool
		project string
		outDir  string
		force   bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an ASP.NET Core project for selected tables",
		Example: `  gennetta generate -c "Server=localhost;Database=Shop;User Id=sa" --prompt-password --tables Customers,Orders --project Shop
  gennetta generate -d demo -c "Server=demo" --all --out ./demo-app
  gennetta generate -d sqlite -c "Data Source=./shop.db" --tables users --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(tables) == 0 && !all {
				return fmt.Errorf("select tables with --tables or pass --all")
			}
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			if project == "" {
				project = cfg.Generator.Project
			}

			out := cmd.OutOrStdout()
			color.New(color.FgCyan).Fprintln(out, "Analyzing schema...")
			snap, d, err := flags.analyze(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			selected := tables
			if all {
				selected = snap.TableNames()
			}

			bundle, err := generator.Generate(snap, selected, generator.Options{
				Project:          project,
				ConnectionString: d.Masked(),
			})
			if err != nil {
				return err
			}

			if dryRun {
				for _, f := range bundle.Files {
					fmt.Fprintf(out, "%-60s %s\n", f.Path, humanize.Bytes(uint64(len(f.Content))))
				}
				fmt.Fprintf(out, "\n%d files, %s\n", len(bundle.Files), humanize.Bytes(uint64(bundle.Size())))
				return nil
			}

			if outDir == "" {
				outDir = bundle.Project
			}
			bar := newFileBar(len(bundle.Files), cmd.ErrOrStderr())
			if err := writeBundle(outDir, bundle.Files, force, func() { bar.Add(1) }); err != nil {
				return err
			}
			bar.Finish()

			color.New(color.FgGreen).Fprintf(out, "Generated %d files (%s) for %d table(s) in %s\n",
				len(bundle.Files), humanize.Bytes(uint64(bundle.Size())), len(selected), outDir)
			fmt.Fprintln(out, "Set the password in appsettings.json, then run 'dotnet run' in that directory.")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&tables, "tables", "t", nil, "Comma-separated table names, in output order")
	cmd.Flags().BoolVar(&all, "all", false, "Generate every table in the schema")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name and root namespace (default: generator.project)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: ./<project>)")
	cmd.Flags().BoolVar(&force, "force", false, "Write into a non-empty output directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the files without writing them")

	return cmd
}

func newFileBar(n int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("writing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(50*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// writeBundle writes files below dir. It refuses a non-empty dir unless
// force is set and rejects paths that would escape dir. onFile runs after
// each file is written.
func writeBundle(dir string, files []model.GeneratedFile, force bool, onFile func()) error {
	if !force {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) > 0 {
			return fmt.Errorf("%s is not empty (use --force to overwrite)", dir)
		}
	}

	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write %q outside %s", f.Path, dir)
		}
		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		if onFile != nil {
			onFile()
		}
	}
	return nil
}
