package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/discourse"
	"github.com/s0up4200/discoursectl/filter"
)

var (
	moveFilter     string
	moveTo         int
	moveUnattended int
	moveDryRun     bool
)

// topicMoveCmd represents the topics move command
var topicMoveCmd = &cobra.Command{
	Use:   "move <category-id>",
	Short: "Move topics of a category to another category",
	Long: `Scan a category for topics matching a filter and move the chosen ones to
another category.

Topics are picked interactively by number, or the first N matches are moved
with --unattended N.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runTopicMove,
}

func init() {
	topicsCmd.AddCommand(topicMoveCmd)

	topicMoveCmd.Flags().StringVarP(&moveFilter, "filter", "f", "", "filter name or expression")
	topicMoveCmd.Flags().IntVar(&moveTo, "to", 0, "destination category id")
	topicMoveCmd.Flags().IntVar(&moveUnattended, "unattended", 0, "run in unattended mode, moving N topics")
	topicMoveCmd.Flags().BoolVarP(&moveDryRun, "dry-run", "d", false, "show what would be moved without changing anything")
	_ = topicMoveCmd.MarkFlagRequired("to")
}

func runTopicMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	from, err := parseID(args[0])
	if err != nil {
		return err
	}
	if moveTo <= 0 || moveTo == from {
		return fmt.Errorf("invalid destination category %d", moveTo)
	}
	f, err := resolveFilter(moveFilter)
	if err != nil {
		return err
	}

	logger.Info().
		Int("from", from).
		Int("to", moveTo).
		Str("filter", moveFilter).
		Msg("Scanning topics to move...")

	page, err := client.ListTopics(ctx, from, false, 0)
	if err != nil {
		return fmt.Errorf("failed to list topics: %w", err)
	}
	all, err := page.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to list topics: %w", err)
	}
	candidates, err := filter.Apply(f, all)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		fmt.Fprintln(out, "✓ No topics match, nothing to move.")
		return nil
	}

	fmt.Fprintf(out, "Found %d %s to move:\n\n", len(candidates), plural(len(candidates), "topic", "topics"))
	fmt.Fprintln(out, strings.Repeat("━", 85))
	fmt.Fprintf(out, "%-4s %-60s %s\n", "#", "TOPIC", "LAST POST")
	fmt.Fprintln(out, strings.Repeat("━", 85))
	for i, topic := range candidates {
		fmt.Fprintf(out, "%-4d %-60s %s\n", i+1, truncate(topic.Title, 60), formatDate(topic.LastPostedAt))
	}
	fmt.Fprintln(out, strings.Repeat("━", 85))

	var selected []discourse.Topic
	if moveUnattended > 0 {
		count := min(moveUnattended, len(candidates))
		fmt.Fprintf(out, "\n[UNATTENDED MODE] Moving %d %s\n", count, plural(count, "topic", "topics"))
		selected = candidates[:count]
	} else {
		input, ok, err := readLine(cmd.InOrStdin(), out,
			"\nEnter topic numbers to move (comma-separated, e.g. 1,3,5) or 'all' for all [Enter to cancel]: ")
		if err != nil {
			return err
		}
		indices, err := parseSelection(input, len(candidates))
		if err != nil {
			return err
		}
		if !ok || len(indices) == 0 {
			fmt.Fprintln(out, "No topics selected.")
			return nil
		}
		for _, idx := range indices {
			selected = append(selected, candidates[idx])
		}
	}

	if moveDryRun {
		fmt.Fprintf(out, "[DRY RUN] Would move to category %d:\n", moveTo)
		for _, topic := range selected {
			fmt.Fprintf(out, "  - %s (ID: %d)\n", topic.Title, topic.ID)
		}
		return nil
	}

	var moved, failures int
	for _, topic := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "→ Moving %s... ", truncate(topic.Title, 60))
		if _, err := client.UpdateTopic(ctx, topic.ID, topic.Title, moveTo); err != nil {
			logger.Error().Err(err).Int("topic", topic.ID).Msg("Failed to move topic")
			fmt.Fprintf(out, "✗ Failed: %v\n", err)
			failures++
			continue
		}
		fmt.Fprintln(out, "✓ Moved")
		moved++
	}

	// Summary
	fmt.Fprintf(out, "\n✓ Moved %d %s to category %d\n", moved, plural(moved, "topic", "topics"), moveTo)
	if failures > 0 {
		fmt.Fprintf(out, "✗ Failed to move %d %s\n", failures, plural(failures, "topic", "topics"))
		return fmt.Errorf("%d of %d topics could not be moved", failures, len(selected))
	}
	return nil
}
