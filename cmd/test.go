package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/discoursectl/discourse"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Test connection to Discourse",
	Long:    `Test the connection to your Discourse forum and display basic information.`,
	PreRunE: initializeApp,
	RunE:    runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Testing connection to Discourse at %s...\n", cfg.Discourse.URL)
	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Connection successful!")

	// Get some basic stats
	var (
		categories *discourse.CategoriesResponse
		groups     []discourse.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = client.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("failed to get categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		page, err := client.ListGroups(gctx)
		if err != nil {
			return fmt.Errorf("failed to get groups: %w", err)
		}
		groups, err = page.Collect(gctx)
		if err != nil {
			return fmt.Errorf("failed to get groups: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nDiscourse Statistics:\n")
	fmt.Fprintf(out, "- Categories: %d\n", len(categories.CategoryList.Categories))
	fmt.Fprintf(out, "- Groups: %d\n", len(groups))
	if cfg.Discourse.APIKey == "" {
		fmt.Fprintln(out, "- Access: anonymous")
	} else {
		fmt.Fprintf(out, "- Access: API key as %s\n", cfg.Discourse.APIUsername)
	}

	return nil
}
