package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/discourse"
	"github.com/s0up4200/discoursectl/filter"
)

var (
	categoryFilter      string
	categoryColor       string
	categoryTextColor   string
	categoryParent      int
	categoryDescription string
	categoryYes         bool
)

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Short:   "List forum categories",
	Long:    `List the top level categories of the forum, optionally narrowed down with a filter.`,
	Args:    cobra.NoArgs,
	PreRunE: initializeApp,
	RunE:    runCategories,
}

var categoryShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a single category",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runCategoryShow,
}

var categoryCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a category",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runCategoryCreate,
}

var categoryDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a category",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runCategoryDelete,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(categoryShowCmd, categoryCreateCmd, categoryDeleteCmd)

	categoriesCmd.Flags().StringVarP(&categoryFilter, "filter", "f", "", "filter name or expression")

	categoryCreateCmd.Flags().StringVar(&categoryColor, "color", discourse.DefaultCategoryColor, "background color (hex, without #)")
	categoryCreateCmd.Flags().StringVar(&categoryTextColor, "text-color", discourse.DefaultCategoryTextColor, "text color (hex, without #)")
	categoryCreateCmd.Flags().IntVar(&categoryParent, "parent", 0, "parent category id")
	categoryCreateCmd.Flags().StringVar(&categoryDescription, "description", "", "category description")

	categoryDeleteCmd.Flags().BoolVarP(&categoryYes, "yes", "y", false, "skip confirmation prompt")
}

func runCategories(cmd *cobra.Command, args []string) error {
	f, err := resolveFilter(categoryFilter)
	if err != nil {
		return err
	}

	resp, err := client.ListCategories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	categories, err := filter.Apply(f, resp.CategoryList.Categories)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(categories) == 0 {
		fmt.Fprintln(out, "No categories found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d %s:\n\n", len(categories), plural(len(categories), "category", "categories"))
	fmt.Fprintln(out, strings.Repeat("━", 85))
	fmt.Fprintf(out, "%-6s %-40s %-25s %8s\n", "ID", "NAME", "SLUG", "TOPICS")
	fmt.Fprintln(out, strings.Repeat("━", 85))
	for _, category := range categories {
		fmt.Fprintf(out, "%-6d %-40s %-25s %8d\n", category.ID, truncate(category.Name, 40), truncate(category.Slug, 25), category.TopicCount)
	}
	fmt.Fprintln(out, strings.Repeat("━", 85))

	return nil
}

func runCategoryShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	category, err := client.GetCategory(cmd.Context(), id)
	if err != nil {
		if discourse.IsNotFound(err) {
			return fmt.Errorf("category %d not found", id)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (ID: %d)\n", category.Name, category.ID)
	fmt.Fprintf(out, "  Slug: %s\n", category.Slug)
	fmt.Fprintf(out, "  Colors: #%s on #%s\n", category.TextColor, category.Color)
	fmt.Fprintf(out, "  Topics: %d, Posts: %d\n", category.TopicCount, category.PostCount)
	if category.ParentCategoryID != nil {
		fmt.Fprintf(out, "  Parent: %d\n", *category.ParentCategoryID)
	}
	if category.DescriptionText != "" {
		fmt.Fprintf(out, "  Description: %s\n", category.DescriptionText)
	}
	if len(category.GroupPermissions) > 0 {
		fmt.Fprintln(out, "  Permissions:")
		for _, perm := range category.GroupPermissions {
			fmt.Fprintf(out, "    • %s: %s\n", perm.GroupName, perm.PermissionType)
		}
	}
	return nil
}

func runCategoryCreate(cmd *cobra.Command, args []string) error {
	params := discourse.NewCategoryParams(args[0])
	params.Color = categoryColor
	params.TextColor = categoryTextColor
	params.Description = categoryDescription
	if categoryParent > 0 {
		params.ParentCategoryID = &categoryParent
	}

	category, err := client.CreateCategory(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	logger.Info().Int("id", category.ID).Str("name", category.Name).Msg("Category created")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created category %s (ID: %d)\n", category.Name, category.ID)
	return nil
}

func runCategoryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if !categoryYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete category %d?", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
			return nil
		}
	}

	if err := client.DeleteCategory(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted category %d\n", id)
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id '%s': must be a positive integer", s)
	}
	return id, nil
}
