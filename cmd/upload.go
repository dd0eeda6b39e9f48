package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/discourse"
)

var (
	uploadUserID int
	uploadType   string
	uploadSync   bool
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file",
	Long: `Upload a file to the forum. The upload belongs to --user-id, or to the API
user when no ID is given. The returned short URL can be used in posts.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().IntVar(&uploadUserID, "user-id", 0, "owner of the upload (default is the API user)")
	uploadCmd.Flags().StringVarP(&uploadType, "type", "t", discourse.UploadTypeComposer, "upload type: composer, avatar, profile_background, card_background or custom_emoji")
	uploadCmd.Flags().BoolVar(&uploadSync, "sync", true, "wait for the server to process the upload")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	userID := uploadUserID
	if userID == 0 {
		if cfg.Discourse.APIUsername == "" {
			return fmt.Errorf("no --user-id given and no discourse.api_username configured")
		}
		resp, err := client.GetUser(ctx, cfg.Discourse.APIUsername)
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", cfg.Discourse.APIUsername, err)
		}
		userID = resp.User.ID
	}

	logger.Info().Str("file", path).Int("user_id", userID).Str("type", uploadType).Msg("Uploading file")

	upload, err := client.CreateUpload(ctx, userID, path, uploadType, uploadSync)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Uploaded %s (ID: %d)\n", upload.OriginalFilename, upload.ID)
	fmt.Fprintf(out, "  URL: %s\n", upload.URL)
	if upload.ShortURL != "" {
		fmt.Fprintf(out, "  Short URL: %s\n", upload.ShortURL)
	}
	if upload.Width > 0 {
		fmt.Fprintf(out, "  Size: %dx%d, %s\n", upload.Width, upload.Height, upload.HumanFilesize)
	}
	return nil
}
