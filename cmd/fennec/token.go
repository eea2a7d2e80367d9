package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/fennec/internal/auth"
	"github.com/dgallion1/fennec/internal/config"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for testing the will API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.ModeToken); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if ttl <= 0 {
				ttl = a.cfg.AccessTokenTTL
			}
			token, err := auth.NewVerifier(a.cfg.SecretKey).Issue(email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default ACCESS_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
