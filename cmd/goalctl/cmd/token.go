package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/goalplanner/internal/config"
	"github.com/templui/goalplanner/internal/service"
)

func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <uid> [email]",
		Short: "Sign an identity token for local API calls",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			email := ""
			if len(args) == 2 {
				email = args[1]
			}

			token, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry).GenerateToken(args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
