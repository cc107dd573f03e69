package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-media/internal/platform/envutil"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
	"github.com/yungbote/neurobridge-media/internal/services"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		subject string
		secret  string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for the write API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			tokens, err := services.NewTokenService(logger.Nop(), secret)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("MEDIA_API_SECRET"), "signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", envutil.Duration("MEDIA_API_TOKEN_TTL", 24*time.Hour, logger.Nop()), "token lifetime (default from MEDIA_API_TOKEN_TTL)")
	return cmd
}
