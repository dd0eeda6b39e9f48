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
	postFilter  string
	postTopic   int
	postReplyTo int
	postRaw     string
	postRawFile string
)

// postsCmd represents the posts command
var postsCmd = &cobra.Command{
	Use:     "posts <topic-id>",
	Short:   "List the posts of a topic",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runPosts,
}

var postShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Print the raw content of a post",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runPostShow,
}

var postCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Reply to a topic",
	Args:    cobra.NoArgs,
	PreRunE: initializeApp,
	RunE:    runPostCreate,
}

var postEditCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Replace the content of a post",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runPostEdit,
}

var postChownCmd = &cobra.Command{
	Use:     "chown <topic-id> <username> <post-id>...",
	Short:   "Give posts of a topic to another user",
	Args:    cobra.MinimumNArgs(3),
	PreRunE: initializeApp,
	RunE:    runPostChown,
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postShowCmd, postCreateCmd, postEditCmd, postChownCmd)

	postsCmd.Flags().StringVarP(&postFilter, "filter", "f", "", "filter name or expression")

	for _, c := range []*cobra.Command{postCreateCmd, postEditCmd} {
		c.Flags().StringVar(&postRaw, "raw", "", "post content")
		c.Flags().StringVar(&postRawFile, "raw-file", "", "read the post content from a file")
		c.MarkFlagsMutuallyExclusive("raw", "raw-file")
	}
	postCreateCmd.Flags().IntVar(&postTopic, "topic", 0, "topic id")
	postCreateCmd.Flags().IntVar(&postReplyTo, "reply-to", 0, "post number to reply to")
	_ = postCreateCmd.MarkFlagRequired("topic")
}

func runPosts(cmd *cobra.Command, args []string) error {
	topicID, err := parseID(args[0])
	if err != nil {
		return err
	}
	f, err := resolveFilter(postFilter)
	if err != nil {
		return err
	}

	stream, err := client.ListPosts(cmd.Context(), topicID)
	if err != nil {
		if discourse.IsNotFound(err) {
			return fmt.Errorf("topic %d not found", topicID)
		}
		return fmt.Errorf("failed to list posts: %w", err)
	}

	posts, err := filter.Apply(f, stream.Posts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(posts) == 0 {
		fmt.Fprintln(out, "No posts found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d %s:\n\n", len(posts), plural(len(posts), "post", "posts"))
	for _, post := range posts {
		fmt.Fprintf(out, "#%d by %s on %s (ID: %d)\n", post.PostNumber, post.Username, formatDate(&post.CreatedAt), post.ID)
		if post.Raw != "" {
			fmt.Fprintf(out, "  %s\n", truncate(strings.ReplaceAll(post.Raw, "\n", " "), 80))
		}
	}
	if len(stream.Stream) > len(stream.Posts) {
		fmt.Fprintf(out, "\nShowing the first %d of %d posts\n", len(stream.Posts), len(stream.Stream))
	}
	return nil
}

func runPostShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	post, err := client.GetPost(cmd.Context(), id)
	if err != nil {
		if discourse.IsNotFound(err) {
			return fmt.Errorf("post %d not found", id)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), post.Raw)
	return nil
}

// postContent returns the --raw or --raw-file content.
func postContent() (string, error) {
	raw := postRaw
	if postRawFile != "" {
		data, err := os.ReadFile(postRawFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", postRawFile, err)
		}
		raw = string(data)
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("post content is empty: use --raw or --raw-file")
	}
	return raw, nil
}

func runPostCreate(cmd *cobra.Command, args []string) error {
	raw, err := postContent()
	if err != nil {
		return err
	}

	post, err := client.CreatePost(cmd.Context(), discourse.NewPost{
		TopicID:           postTopic,
		Raw:               raw,
		ReplyToPostNumber: postReplyTo,
	})
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	logger.Info().Int("topic_id", post.TopicID).Int("post_id", post.ID).Msg("Post created")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created post #%d in topic %d (ID: %d)\n", post.PostNumber, post.TopicID, post.ID)
	return nil
}

func runPostEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	raw, err := postContent()
	if err != nil {
		return err
	}

	post, err := client.UpdatePost(cmd.Context(), id, raw)
	if err != nil {
		return fmt.Errorf("failed to update post %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated post %d (version %d)\n", post.ID, post.Version)
	return nil
}

func runPostChown(cmd *cobra.Command, args []string) error {
	topicID, err := parseID(args[0])
	if err != nil {
		return err
	}
	username := args[1]

	postIDs := make([]int, 0, len(args)-2)
	for _, arg := range args[2:] {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		postIDs = append(postIDs, id)
	}

	if _, err := client.ChangePostOwners(cmd.Context(), topicID, username, postIDs...); err != nil {
		return fmt.Errorf("failed to change post owner: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d %s now owned by %s\n", len(postIDs), plural(len(postIDs), "post", "posts"), username)
	return nil
}
