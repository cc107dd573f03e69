package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-media/internal/media"
)

func newIdentifierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identifier",
		Short: "Encode and decode stored identifiers",
	}
	cmd.AddCommand(newIdentifierDecodeCmd(), newIdentifierEncodeCmd())
	return cmd
}

func newIdentifierDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <identifier>",
		Short: "Split an identifier into version, public id and format",
		Long: `Decode a stored identifier.

Examples:
  mediastore identifier decode v1700000000/users/7/avatar.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := media.ParseIdentifier(args[0])
			if !ok {
				return fmt.Errorf("identifier is blank")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"public_id":      id.PublicID,
				"version":        id.Version,
				"format":         id.Format,
				"filename":       id.Filename(),
				"full_public_id": id.FullPublicID(),
			})
		},
	}
}

func newIdentifierEncodeCmd() *cobra.Command {
	var publicID, format, version string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build an identifier from its parts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if publicID == "" {
				return fmt.Errorf("--public-id is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), media.Encode(publicID, format, version))
			return nil
		},
	}
	cmd.Flags().StringVar(&publicID, "public-id", "", "public id of the asset")
	cmd.Flags().StringVar(&format, "format", "", "file format (extension)")
	cmd.Flags().StringVar(&version, "version", "", "asset version")
	return cmd
}
