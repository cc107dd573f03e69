package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-media/internal/platform/logger"
	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Inspect the remote media store",
	}
	cmd.AddCommand(newRemoteListCmd())
	return cmd
}

func newRemoteListCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List stored public ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := mediacloud.NewServiceFromEnv(cmd.Context(), logger.Nop())
			if err != nil {
				return err
			}
			defer svc.Close()
			ids, err := svc.ListPublicIDs(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list public ids with this prefix")
	return cmd
}
