package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discoursectl/discourse"
	"github.com/s0up4200/discoursectl/filter"
)

var (
	userFilter     string
	userFlag       string
	userOrder      string
	userAscending  bool
	userAll        bool
	userExternalID bool
	userName       string
	userEmail      string
	userPassword   string
	userActive     bool
)

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users <username>...",
	Short: "Show users",
	Long: `Show one or more users. Several users are fetched concurrently.
With --external-id the argument is a single sign-on ID instead of a username.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: initializeApp,
	RunE:    runUsers,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users (admin API key required)",
	Long: fmt.Sprintf(`List users from the admin user list. --flag selects the list: %s.`,
		strings.Join([]string{
			discourse.UserFlagActive, discourse.UserFlagNew, discourse.UserFlagStaff,
			discourse.UserFlagSuspended, discourse.UserFlagBlocked, discourse.UserFlagSuspect,
			discourse.UserFlagAll,
		}, ", ")),
	Args:    cobra.NoArgs,
	PreRunE: initializeApp,
	RunE:    runUserList,
}

var userFindCmd = &cobra.Command{
	Use:     "find <email>",
	Short:   "Find users by email address (admin API key required)",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runUserFind,
}

var userCreateCmd = &cobra.Command{
	Use:     "create <username>",
	Short:   "Create a user",
	Args:    cobra.ExactArgs(1),
	PreRunE: initializeApp,
	RunE:    runUserCreate,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(userListCmd, userFindCmd, userCreateCmd)

	usersCmd.Flags().BoolVar(&userExternalID, "external-id", false, "look the user up by single sign-on ID")

	userListCmd.Flags().StringVarP(&userFilter, "filter", "f", "", "filter name or expression")
	userListCmd.Flags().StringVar(&userFlag, "flag", discourse.UserFlagActive, "which user list to show")
	userListCmd.Flags().StringVar(&userOrder, "order", "", "sort column, e.g. created, last_emailed, seen, username, trust_level")
	userListCmd.Flags().BoolVar(&userAscending, "asc", false, "sort ascending")
	userListCmd.Flags().BoolVarP(&userAll, "all", "a", false, "list every page")

	userCreateCmd.Flags().StringVar(&userName, "name", "", "full name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password")
	userCreateCmd.Flags().BoolVar(&userActive, "active", false, "activate the account without email confirmation")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}

func runUsers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var responses []*discourse.UserResponse
	if userExternalID {
		if len(args) != 1 {
			return fmt.Errorf("--external-id takes exactly one ID")
		}
		resp, err := client.GetUserByExternalID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		responses = append(responses, resp)
	} else {
		var err error
		responses, err = client.GetUsers(ctx, args...)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for i, resp := range responses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printUser(cmd, resp.User)
	}
	return nil
}

func printUser(cmd *cobra.Command, user discourse.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (ID: %d)\n", user.Username, user.ID)
	if user.Name != "" {
		fmt.Fprintf(out, "  Name: %s\n", user.Name)
	}
	fmt.Fprintf(out, "  Trust level: %d\n", user.TrustLevel)
	fmt.Fprintf(out, "  Joined: %s, Last seen: %s\n", formatDate(user.CreatedAt), formatDate(user.LastSeenAt))
	var roles []string
	if user.Admin {
		roles = append(roles, "admin")
	}
	if user.Moderator {
		roles = append(roles, "moderator")
	}
	if len(roles) > 0 {
		fmt.Fprintf(out, "  Roles: %s\n", strings.Join(roles, ", "))
	}
	if len(user.Groups) > 0 {
		names := make([]string, 0, len(user.Groups))
		for _, g := range user.Groups {
			names = append(names, g.Name)
		}
		fmt.Fprintf(out, "  Groups: %s\n", strings.Join(names, ", "))
	}
}

func runUserList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := resolveFilter(userFilter)
	if err != nil {
		return err
	}

	page, err := client.ListUsers(ctx, userFlag, userOrder, userAscending)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	users := page.Items
	if userAll {
		users, err = page.Collect(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
	}

	users, err = filter.Apply(f, users)
	if err != nil {
		return err
	}
	printUserList(cmd, users)
	return nil
}

func runUserFind(cmd *cobra.Command, args []string) error {
	page, err := client.GetUsersByEmail(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to find users: %w", err)
	}
	printUserList(cmd, page.Items)
	return nil
}

func printUserList(cmd *cobra.Command, users []discourse.UserListEntry) {
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return
	}

	fmt.Fprintf(out, "Found %d %s:\n\n", len(users), plural(len(users), "user", "users"))
	fmt.Fprintln(out, strings.Repeat("━", 85))
	fmt.Fprintf(out, "%-8s %-25s %-35s %-3s %s\n", "ID", "USERNAME", "EMAIL", "TL", "LAST SEEN")
	fmt.Fprintln(out, strings.Repeat("━", 85))
	for _, user := range users {
		fmt.Fprintf(out, "%-8d %-25s %-35s %-3d %s\n", user.ID, truncate(user.Username, 25), truncate(user.Email, 35),
			user.TrustLevel, formatDate(user.LastSeenAt))
	}
	fmt.Fprintln(out, strings.Repeat("━", 85))
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	user := discourse.NewUser{
		Username: args[0],
		Name:     userName,
		Email:    userEmail,
		Password: userPassword,
	}
	if userActive {
		user.Active = &userActive
	}

	result, err := client.CreateUser(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info().Int("user_id", result.UserID).Str("username", args[0]).Msg("User created")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", result.Message)
	return nil
}
