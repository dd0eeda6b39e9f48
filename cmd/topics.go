package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/discourse"
	"github.com/s0up4200/discoursectl/filter"
)

var (
	topicFilter        string
	topicPage          int
	topicAll           bool
	topicSubcategories bool
	topicTitle         string
	topicCategory      int
	topicRaw           string
	topicRawFile       string
	topicYes           bool
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics <category-id>",
	Short: "List topics of a category",
	Long: `List the topics of a category one page at a time, or every page with --all.
A filter narrows the listing down, for example:

  discoursectl topics 5 --all --filter 'closed == false and daysSince(last_posted_at) > 90'`,
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runTopics,
}

var topicShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a single topic",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runTopicShow,
}

var topicCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a topic",
	Args:    cobra.NoArgs,
	PreRunE: initializeApp,
	RunE:    runTopicCreate,
}

var topicDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a topic",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runTopicDelete,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicShowCmd, topicCreateCmd, topicDeleteCmd)

	topicsCmd.Flags().StringVarP(&topicFilter, "filter", "f", "", "filter name or expression")
	topicsCmd.Flags().IntVarP(&topicPage, "page", "p", 0, "page to list (zero-based)")
	topicsCmd.Flags().BoolVarP(&topicAll, "all", "a", false, "list every page")
	topicsCmd.Flags().BoolVar(&topicSubcategories, "include-subcategories", true, "include topics of subcategories")

	topicCreateCmd.Flags().StringVar(&topicTitle, "title", "", "topic title")
	topicCreateCmd.Flags().IntVar(&topicCategory, "category", 0, "category id")
	topicCreateCmd.Flags().StringVar(&topicRaw, "raw", "", "first post content")
	topicCreateCmd.Flags().StringVar(&topicRawFile, "raw-file", "", "read the first post content from a file")
	_ = topicCreateCmd.MarkFlagRequired("title")
	topicCreateCmd.MarkFlagsMutuallyExclusive("raw", "raw-file")

	topicDeleteCmd.Flags().BoolVarP(&topicYes, "yes", "y", false, "skip confirmation prompt")
}

func runTopics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	categoryID, err := parseID(args[0])
	if err != nil {
		return err
	}
	f, err := resolveFilter(topicFilter)
	if err != nil {
		return err
	}

	page, err := client.ListTopics(ctx, categoryID, topicSubcategories, topicPage)
	if err != nil {
		return fmt.Errorf("failed to list topics: %w", err)
	}

	topics := page.Items
	if topicAll {
		topics, err = page.Collect(ctx)
		if err != nil {
			return fmt.Errorf("failed to list topics: %w", err)
		}
	}

	topics, err = filter.Apply(f, topics)
	if err != nil {
		return err
	}

	printTopics(cmd, topics)
	if !topicAll && page.HasMore() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nMore topics available: use --page %d or --all\n", page.PageNumber+1)
	}
	return nil
}

func printTopics(cmd *cobra.Command, topics []discourse.Topic) {
	out := cmd.OutOrStdout()
	if len(topics) == 0 {
		fmt.Fprintln(out, "No topics found.")
		return
	}

	fmt.Fprintf(out, "Found %d %s:\n\n", len(topics), plural(len(topics), "topic", "topics"))
	fmt.Fprintln(out, strings.Repeat("━", 85))
	fmt.Fprintf(out, "%-8s %-50s %6s %-12s %s\n", "ID", "TITLE", "POSTS", "LAST POST", "STATE")
	fmt.Fprintln(out, strings.Repeat("━", 85))
	for _, topic := range topics {
		fmt.Fprintf(out, "%-8d %-50s %6d %-12s %s\n", topic.ID, truncate(topic.Title, 50), topic.PostsCount,
			formatDate(topic.LastPostedAt), topicState(topic))
	}
	fmt.Fprintln(out, strings.Repeat("━", 85))
}

func topicState(topic discourse.Topic) string {
	var state []string
	if topic.Pinned {
		state = append(state, "pinned")
	}
	if topic.Closed {
		state = append(state, "closed")
	}
	if topic.Archived {
		state = append(state, "archived")
	}
	if !topic.Visible {
		state = append(state, "unlisted")
	}
	return strings.Join(state, ",")
}

func runTopicShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	topic, err := client.GetTopic(cmd.Context(), id)
	if err != nil {
		if discourse.IsNotFound(err) {
			return fmt.Errorf("topic %d not found", id)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (ID: %d)\n", topic.Title, topic.ID)
	fmt.Fprintf(out, "  Category: %d\n", topic.CategoryID)
	fmt.Fprintf(out, "  Created: %s\n", formatDate(&topic.CreatedAt))
	fmt.Fprintf(out, "  Posts: %d, Views: %d, Likes: %d\n", topic.PostsCount, topic.Views, topic.LikeCount)
	if len(topic.Tags) > 0 {
		fmt.Fprintf(out, "  Tags: %s\n", strings.Join(topic.Tags, ", "))
	}
	if state := topicState(topic.Topic); state != "" {
		fmt.Fprintf(out, "  State: %s\n", state)
	}
	return nil
}

func runTopicCreate(cmd *cobra.Command, args []string) error {
	raw := topicRaw
	if topicRawFile != "" {
		data, err := os.ReadFile(topicRawFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", topicRawFile, err)
		}
		raw = string(data)
	}
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("topic content is empty: use --raw or --raw-file")
	}

	post, err := client.CreateTopic(cmd.Context(), discourse.NewTopic{
		Title:      topicTitle,
		CategoryID: topicCategory,
		Raw:        raw,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	logger.Info().Int("topic_id", post.TopicID).Int("post_id", post.ID).Msg("Topic created")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created topic %d (%s)\n", post.TopicID, post.TopicSlug)
	return nil
}

func runTopicDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if !topicYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete topic %d?", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
			return nil
		}
	}

	if err := client.DeleteTopic(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete topic %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted topic %d\n", id)
	return nil
}
