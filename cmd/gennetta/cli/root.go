package cli

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	dataDir    string
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gennetta",
		Short: "Generate ASP.NET Core CRUD applications from a database schema",
		Long: `GenNetta: point it at a database, pick tables, get an ASP.NET Core project.

GenNetta reads the base tables of a SQL Server, PostgreSQL, MySQL or SQLite
database and generates entity models, repositories, services, API and MVC
controllers, Razor views and the project wiring for Entity Framework Core.
It runs as a CLI, an HTTP server with a browser wizard, or an MCP server for
AI agents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./gennetta.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the session store (default: ~/.gennetta)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newDriversCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gennetta")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.gennetta")
	}

	viper.SetEnvPrefix("GENNETTA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
