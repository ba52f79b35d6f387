package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/server"
	"github.com/gennetta/gennetta/internal/service"
)

const banner = `
  ___          _  _     _   _
 / __|___ _ _ | \| |___| |_| |_ __ _
| (_ / -_) ' \| .' / -_)  _|  _/ _' |
 \___\___|_||_|_|\_\___|\__|\__\__,_|
`

func newServeCmd() *cobra.Command {
	var noUI bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GenNetta HTTP server",
		Long:  "Start the HTTP server that exposes schema analysis, generation and the wizard session API, plus the browser wizard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(noUI)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the browser wizard")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(noUI bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	srvCfg, err := serverConfig(cfg)
	if err != nil {
		return err
	}
	srvCfg.EnableUI = !noUI

	store, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	logger.Info("session store initialized", "path", resolveDataDir(cfg))

	registry := newRegistry(cfg, true)
	authSvc := service.NewAuthService(cfg.Auth.JWTSecret)
	if !authSvc.Enabled() {
		logger.Warn("auth.jwt_secret is empty: the API accepts unauthenticated requests")
	}

	srv := server.New(srvCfg, registry, store, authSvc, logger)

	base := fmt.Sprintf("http://%s:%d", srvCfg.Host, srvCfg.Port)
	color.New(color.FgCyan).Printf("→ GenNetta %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", base)
	if srvCfg.EnableUI {
		fmt.Printf("→ Wizard:     %s/\n", base)
	}
	fmt.Printf("→ API:        %s/api/v1\n", base)
	fmt.Printf("→ Health:     %s/healthz\n", base)
	fmt.Printf("→ Drivers:    %d (default %s)\n", len(registry.Drivers()), cfg.Drivers.Default)
	fmt.Println()

	return srv.ListenAndServe()
}

// serverConfig translates the file settings into a server.Config.
func serverConfig(cfg *config.YAMLConfig) (server.Config, error) {
	out := server.DefaultConfig()
	out.Host = cfg.Server.Host
	out.Port = cfg.Server.Port
	out.CORSOrigins = cfg.Server.CORS.Origins
	if len(cfg.Server.CORS.Methods) > 0 {
		out.CORSMethods = cfg.Server.CORS.Methods
	}
	out.DefaultDriver = cfg.Drivers.Default
	out.DefaultProject = cfg.Generator.Project
	out.Version = versionString()
	out.RateLimit = cfg.Server.RateLimit.Requests

	var err error
	if out.MaxBodySize, err = cfg.Server.BodyLimit(); err != nil {
		return out, err
	}
	if out.ShutdownTimeout, err = cfg.Server.ShutdownAfter(); err != nil {
		return out, err
	}
	if out.RateWindow, err = cfg.Server.RateLimit.WindowDuration(); err != nil {
		return out, err
	}
	return out, nil
}
