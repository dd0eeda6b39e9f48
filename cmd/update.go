package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/config"
)

var (
	updateCheckOnly bool
	updateYes       bool
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update discoursectl to the latest release",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "discoursectl %s (built %s, %s %s/%s)\n",
			version, buildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd, versionCmd)

	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only check for a newer release")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "skip confirmation prompt")
}

// updateRepository returns the release repository, falling back to the default
// when no usable config exists.
func updateRepository() string {
	c, err := config.Load(cfgFile)
	if err != nil {
		return config.Default().Update.Repository
	}
	return c.Update.Repository
}

// isNewer reports whether the release version latest is newer than current.
func isNewer(current, latest string) (bool, error) {
	cur, err := semver.ParseTolerant(current)
	if err != nil {
		return false, fmt.Errorf("cannot compare against version %q: %w", current, err)
	}
	next, err := semver.ParseTolerant(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	return next.GT(cur), nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	repository := updateRepository()

	fmt.Fprintf(out, "Checking %s for releases...\n", repository)
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repository))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	newer, err := isNewer(version, latest.Version())
	if err != nil {
		return err
	}
	if !newer {
		fmt.Fprintf(out, "✓ discoursectl %s is up to date\n", version)
		return nil
	}

	fmt.Fprintf(out, "A new release is available: %s (current %s)\n", latest.Version(), version)
	if latest.URL != "" {
		fmt.Fprintf(out, "  Release notes: %s\n", latest.URL)
	}
	if updateCheckOnly {
		return nil
	}

	if !updateYes {
		ok, err := confirm(cmd.InOrStdin(), out, "Install it now?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Update cancelled.")
			return nil
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Fprintf(out, "✓ Updated to %s\n", latest.Version())
	return nil
}
