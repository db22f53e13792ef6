package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/huzhengnan/website-monitor-sub000/infrastructure/jwt"
	"github.com/huzhengnan/website-monitor-sub000/internal/bootstrap"
)

const defaultTokenTTL = 24 * time.Hour

var errNoSecret = errors.New("auth.jwt_secret is not set; the API is running without authentication")

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			token, err := issueToken(cfg.Auth.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime")
	return cmd
}

func issueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	return jwt.IssueToken(secret, subject, ttl)
}
