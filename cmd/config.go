package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/config"
)

var (
	initURL         string
	initAPIKey      string
	initAPIUsername string
	initForce       bool
)

// configCmd groups the config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file",
	Long: `Write a configuration file with default values and the given connection
details. The default path is ~/.discoursectl/config.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&initURL, "url", "", "forum URL, e.g. https://forum.example.com")
	configInitCmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key")
	configInitCmd.Flags().StringVar(&initAPIUsername, "api-username", "system", "user the API key acts as")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	_ = configInitCmd.MarkFlagRequired("url")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := defaultConfigPath()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	c := config.Default()
	c.Discourse.URL = initURL
	c.Discourse.APIKey = initAPIKey
	c.Discourse.APIUsername = initAPIUsername

	if err := config.Save(c, path); err != nil {
		return err
	}

	// Make sure the file loads
	if _, err := config.Load(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".discoursectl", "config.yaml"), nil
}
