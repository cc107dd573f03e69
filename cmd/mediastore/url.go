package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-media/internal/media"
	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

var errOffline = errors.New("remote operations are unavailable offline")

// offlineRemote builds URLs without a storage connection.
type offlineRemote struct {
	mediacloud.URLBuilder
}

func (offlineRemote) Upload(ctx context.Context, r io.Reader, params mediacloud.UploadParams) (*mediacloud.UploadResult, error) {
	return nil, errOffline
}

func (offlineRemote) Destroy(ctx context.Context, publicID string) error { return errOffline }

func (offlineRemote) RandomPublicID() string { return mediacloud.RandomPublicID() }

func newURLCmd() *cobra.Command {
	var (
		baseURL    string
		mountsFile string
		mountName  string
		variant    string
		opts       mediacloud.URLOptions
	)
	cmd := &cobra.Command{
		Use:   "url <identifier>",
		Short: "Print the delivery URL of a stored identifier",
		Long: `Print the delivery URL of a stored identifier without contacting storage.

Examples:
  mediastore url v1700000000/users/7/avatar.png --mount avatar --variant thumb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := media.LoadRegistry(mountsFile)
			if err != nil {
				return err
			}
			def, ok := reg.Lookup(mountName)
			if !ok {
				return fmt.Errorf("unknown mount %q", mountName)
			}
			remote := offlineRemote{mediacloud.URLBuilder{DeliveryBaseURL: baseURL}}
			m := def.NewMount(remote, "", false)
			m.Retrieve(args[0])
			if variant != "" {
				if _, ok := m.Variant(variant); !ok {
					return fmt.Errorf("mount %q has no variant %q", mountName, variant)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.URLFor(variant, opts))
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", os.Getenv("MEDIA_DELIVERY_BASE_URL"), "delivery base URL")
	cmd.Flags().StringVar(&mountsFile, "mounts-file", os.Getenv("MEDIA_MOUNTS_FILE"), "mount definitions YAML")
	cmd.Flags().StringVar(&mountName, "mount", "avatar", "mount name")
	cmd.Flags().StringVar(&variant, "variant", "", "variant name")
	cmd.Flags().IntVar(&opts.Transformation.Width, "width", 0, "width override")
	cmd.Flags().IntVar(&opts.Transformation.Height, "height", 0, "height override")
	cmd.Flags().StringVar(&opts.Transformation.Crop, "crop", "", "crop mode override")
	return cmd
}
