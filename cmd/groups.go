package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/discourse"
	"github.com/s0up4200/discoursectl/filter"
)

var (
	groupFilter   string
	groupAll      bool
	groupLimit    int
	groupFullName string
	groupOwners   []string
	groupMembers  []string
)

// groupsCmd represents the groups command
var groupsCmd = &cobra.Command{
	Use:     "groups",
	Short:   "List groups",
	Args:    cobra.NoArgs,
	PreRunE: initializeApp,
	RunE:    runGroups,
}

var groupMembersCmd = &cobra.Command{
	Use:     "members <name>",
	Short:   "List the members of a group",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runGroupMembers,
}

var groupCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a group (admin API key required)",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runGroupCreate,
}

var groupAddCmd = &cobra.Command{
	Use:     "add <group-id> <username>...",
	Short:   "Add users to a group",
	Args:    cobra.MinimumNArgs(2),
	PreRunE: initializeApp,
	RunE:    runGroupAdd,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(groupMembersCmd, groupCreateCmd, groupAddCmd)

	groupsCmd.Flags().StringVarP(&groupFilter, "filter", "f", "", "filter name or expression")

	groupMembersCmd.Flags().StringVarP(&groupFilter, "filter", "f", "", "filter name or expression")
	groupMembersCmd.Flags().BoolVarP(&groupAll, "all", "a", false, "list every page")
	groupMembersCmd.Flags().IntVar(&groupLimit, "limit", discourse.DefaultPageLimit, "members per page")

	groupCreateCmd.Flags().StringVar(&groupFullName, "full-name", "", "full name of the group")
	groupCreateCmd.Flags().StringSliceVar(&groupOwners, "owners", nil, "owner usernames (default is the API user)")
	groupCreateCmd.Flags().StringSliceVar(&groupMembers, "members", nil, "member usernames")
}

func runGroups(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := resolveFilter(groupFilter)
	if err != nil {
		return err
	}

	page, err := client.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	groups, err := page.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	groups, err = filter.Apply(f, groups)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, "No groups found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d %s:\n\n", len(groups), plural(len(groups), "group", "groups"))
	fmt.Fprintln(out, strings.Repeat("━", 85))
	fmt.Fprintf(out, "%-6s %-30s %-35s %8s\n", "ID", "NAME", "FULL NAME", "USERS")
	fmt.Fprintln(out, strings.Repeat("━", 85))
	for _, group := range groups {
		name := group.Name
		if group.Automatic {
			name += " (auto)"
		}
		fmt.Fprintf(out, "%-6d %-30s %-35s %8d\n", group.ID, truncate(name, 30), truncate(group.FullName, 35), group.UserCount)
	}
	fmt.Fprintln(out, strings.Repeat("━", 85))
	return nil
}

func runGroupMembers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := resolveFilter(groupFilter)
	if err != nil {
		return err
	}

	page, err := client.ListGroupMembers(ctx, args[0], &discourse.ListRequest{Limit: groupLimit})
	if err != nil {
		if discourse.IsNotFound(err) {
			return fmt.Errorf("group %s not found", args[0])
		}
		return fmt.Errorf("failed to list members: %w", err)
	}

	owners, err := discourse.GroupOwners(page)
	if err != nil {
		return err
	}
	isOwner := make(map[int]bool, len(owners))
	for _, owner := range owners {
		isOwner[owner.ID] = true
	}

	members := page.Items
	if groupAll {
		members, err = page.Collect(ctx)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
	}
	members, err = filter.Apply(f, members)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(members) == 0 {
		fmt.Fprintln(out, "No members found.")
		return nil
	}

	fmt.Fprintf(out, "Showing %d of %d %s:\n\n", len(members), page.TotalCount, plural(page.TotalCount, "member", "members"))
	for _, member := range members {
		fmt.Fprintf(out, "• %s", member.Username)
		if isOwner[member.ID] {
			fmt.Fprint(out, " [OWNER]")
		}
		fmt.Fprintf(out, " (last seen %s)\n", formatDate(member.LastSeenAt))
	}
	if !groupAll && page.HasMore() {
		fmt.Fprintln(out, "\nMore members available: use --all")
	}
	return nil
}

func runGroupCreate(cmd *cobra.Command, args []string) error {
	params := discourse.GroupParams{
		Name:           args[0],
		FullName:       groupFullName,
		OwnerUsernames: strings.Join(groupOwners, ","),
		Usernames:      strings.Join(groupMembers, ","),
	}

	group, err := client.CreateGroup(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	logger.Info().Int("id", group.ID).Str("name", group.Name).Msg("Group created")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created group %s (ID: %d)\n", group.Name, group.ID)
	return nil
}

func runGroupAdd(cmd *cobra.Command, args []string) error {
	groupID, err := parseID(args[0])
	if err != nil {
		return err
	}

	if _, err := client.AddGroupMembers(cmd.Context(), groupID, args[1:]...); err != nil {
		return fmt.Errorf("failed to add members: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %d %s to group %d\n", len(args)-1, plural(len(args)-1, "user", "users"), groupID)
	return nil
}
