package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mediastore",
		Short:         "Media attachment service and tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newIdentifierCmd(),
		newURLCmd(),
		newRemoteCmd(),
		newTokenCmd(),
	)
	return root
}
