package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehari-dev/cliniccall/internal/files"
	"github.com/mehari-dev/cliniccall/internal/ui"
)

var uploadPhotoCmd = &cobra.Command{
	Use:   "upload-photo <path>",
	Short: "Upload a profile photo",
	Long: `Validate and upload an image as the account's profile photo.

Example:
  cliniccall upload-photo ~/Pictures/me.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUploadPhoto(args[0])
	},
}

func init() {
	registerConnectionFlags(uploadPhotoCmd)
	rootCmd.AddCommand(uploadPhotoCmd)
}

func runUploadPhoto(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := requireSession()
	if err != nil {
		return err
	}

	info, err := files.ValidateImage(path)
	if err != nil {
		return err
	}
	ui.PrintInfof("%s %s (%s, %d KB)", ui.IconCamera, info.Name, info.Type, info.Size/1024)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stop := ui.RunSpinner("Uploading...")
	err = newAPIClient(cfg, sess).UploadProfilePhoto(ctx, info.Path)
	stop()
	if err != nil {
		return err
	}

	ui.PrintSuccess("Profile photo updated.")
	return nil
}
