package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gennetta/gennetta/internal/service"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long:  "Sign a JWT with auth.jwt_secret. The server must run with the same secret to accept it.",
		Example: `  GENNETTA_AUTH_JWT_SECRET=... gennetta token --subject ci --ttl 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			authSvc := service.NewAuthService(cfg.Auth.JWTSecret)
			if !authSvc.Enabled() {
				return fmt.Errorf("auth.jwt_secret is not set; set it in gennetta.yaml or GENNETTA_AUTH_JWT_SECRET")
			}

			if ttl == 0 {
				if ttl, err = cfg.Auth.Expiry(); err != nil {
					return err
				}
			}
			tok, err := authSvc.IssueJWT(cmd.Context(), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject, recorded in request logs")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.jwt_expiry)")

	return cmd
}
