package discourse

import (
	"context"
	"net/http"
	"time"
)

// User list flags accepted by ListUsers.
const (
	UserFlagActive    = "active"
	UserFlagNew       = "new"
	UserFlagStaff     = "staff"
	UserFlagSuspended = "suspended"
	UserFlagBlocked   = "blocked"
	UserFlagSuspect   = "suspect"
	UserFlagAll       = "all"
)

// UserSummary holds the fields shared by the user shapes.
type UserSummary struct {
	Entry
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Name           string     `json:"name"`
	AvatarTemplate string     `json:"avatar_template"`
	Email          string     `json:"email"`
	Title          string     `json:"title"`
	TrustLevel     int        `json:"trust_level"`
	Moderator      bool       `json:"moderator"`
	Admin          bool       `json:"admin"`
	Staged         bool       `json:"staged"`
	CreatedAt      *time.Time `json:"created_at"`
	LastSeenAt     *time.Time `json:"last_seen_at"`
	TimeRead       int        `json:"time_read"`
	PostCount      int        `json:"post_count"`
}

// UserListEntry is a user as returned by the admin user lists.
type UserListEntry struct {
	UserSummary
	SecondaryEmails []string   `json:"secondary_emails"`
	Active          bool       `json:"active"`
	LastEmailedAt   *time.Time `json:"last_emailed_at"`
	LastSeenAge     *float64   `json:"last_seen_age"`
	LastEmailedAge  *float64   `json:"last_emailed_age"`
	CreatedAtAge    float64    `json:"created_at_age"`
	UsernameLower   string     `json:"username_lower"`
	FlagLevel       int        `json:"flag_level"`
	DaysVisited     int        `json:"days_visited"`
	PostsReadCount  int        `json:"posts_read_count"`
	TopicsEntered   int        `json:"topics_entered"`
	Suspended       bool       `json:"suspended"`
}

// GroupUser is a user's membership record in a group.
type GroupUser struct {
	Entry
	GroupID           int  `json:"group_id"`
	UserID            int  `json:"user_id"`
	NotificationLevel int  `json:"notification_level"`
	Owner             bool `json:"owner"`
}

// UserOption holds the preferences of a user.
type UserOption struct {
	Entry
	UserID                 int    `json:"user_id"`
	MailingListMode        bool   `json:"mailing_list_mode"`
	EmailDigests           bool   `json:"email_digests"`
	EmailLevel             int    `json:"email_level"`
	EmailMessagesLevel     int    `json:"email_messages_level"`
	ExternalLinksInNewTab  bool   `json:"external_links_in_new_tab"`
	EnableQuoting          bool   `json:"enable_quoting"`
	DynamicFavicon         bool   `json:"dynamic_favicon"`
	HideProfileAndPresence bool   `json:"hide_profile_and_presence"`
	ThemeIDs               []int  `json:"theme_ids"`
	TextSize               string `json:"text_size"`
	Timezone               string `json:"timezone"`
}

// User is the full profile of a user.
type User struct {
	UserSummary
	LastPostedAt           *time.Time     `json:"last_posted_at"`
	Ignored                bool           `json:"ignored"`
	Muted                  bool           `json:"muted"`
	CanIgnoreUser          bool           `json:"can_ignore_user"`
	CanMuteUser            bool           `json:"can_mute_user"`
	CanSendPrivateMessages bool           `json:"can_send_private_messages"`
	CanEdit                bool           `json:"can_edit"`
	CanEditUsername        bool           `json:"can_edit_username"`
	CanEditEmail           bool           `json:"can_edit_email"`
	CanEditName            bool           `json:"can_edit_name"`
	UploadedAvatarID       *int           `json:"uploaded_avatar_id"`
	BadgeCount             int            `json:"badge_count"`
	ProfileViewCount       int            `json:"profile_view_count"`
	PrimaryGroupName       string         `json:"primary_group_name"`
	Locale                 string         `json:"locale"`
	ExternalID             string         `json:"external_id"`
	CustomFields           map[string]any `json:"custom_fields"`
	Groups                 []Group        `json:"groups"`
	GroupUsers             []GroupUser    `json:"group_users"`
	UserOption             *UserOption    `json:"user_option"`
}

// Badge is a badge definition.
type Badge struct {
	Entry
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	GrantCount        int    `json:"grant_count"`
	AllowTitle        bool   `json:"allow_title"`
	MultipleGrant     bool   `json:"multiple_grant"`
	Icon              string `json:"icon"`
	ImageURL          string `json:"image_url"`
	Listable          bool   `json:"listable"`
	Enabled           bool   `json:"enabled"`
	BadgeGroupingID   int    `json:"badge_grouping_id"`
	System            bool   `json:"system"`
	Slug              string `json:"slug"`
	ManuallyGrantable bool   `json:"manually_grantable"`
	BadgeTypeID       int    `json:"badge_type_id"`
}

// UserBadge is a badge granted to a user.
type UserBadge struct {
	Entry
	ID          int       `json:"id"`
	GrantedAt   time.Time `json:"granted_at"`
	Count       int       `json:"count"`
	BadgeID     int       `json:"badge_id"`
	UserID      int       `json:"user_id"`
	GrantedByID int       `json:"granted_by_id"`
}

// BadgeType is a badge category.
type BadgeType struct {
	Entry
	ID        int    `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// UserResponse is a user profile with the badges it references.
type UserResponse struct {
	Entry
	UserBadges []UserBadge   `json:"user_badges"`
	Badges     []Badge       `json:"badges"`
	BadgeTypes []BadgeType   `json:"badge_types"`
	Users      []UserSummary `json:"users"`
	User       User          `json:"user"`
}

// NewUser are the fields of a user create call.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Active   *bool  `json:"active,omitempty"`
	Approved *bool  `json:"approved,omitempty"`
	// UserFields maps custom user field IDs to values.
	UserFields map[string]string `json:"user_fields,omitempty"`
}

// CreateUserResult is the answer to a user create call.
type CreateUserResult struct {
	Entry
	Success bool   `json:"success"`
	Active  bool   `json:"active"`
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
}

// GetUser returns a user by username
func (c *Client) GetUser(ctx context.Context, username string) (*UserResponse, error) {
	return GetAs[UserResponse](ctx, c, Combine("users", username), nil)
}

// GetUserByExternalID returns a user by single sign-on ID
func (c *Client) GetUserByExternalID(ctx context.Context, externalID string) (*UserResponse, error) {
	return GetAs[UserResponse](ctx, c, Combine("u", "by-external", externalID), nil)
}

// GetUsersByEmail returns the users with the given email address. Requires an admin API key.
func (c *Client) GetUsersByEmail(ctx context.Context, email string) (*Page[UserListEntry], error) {
	query := map[string]any{
		"email": email,
		"page":  1,
	}
	return List(ctx, c, http.MethodGet, Combine("admin", "users", "list", UserFlagAll), query, nil,
		PageNumberPaging{}, ItemsDecoder[UserListEntry](""))
}

// ListUsers returns the first page of an admin user list. Requires an admin API key.
func (c *Client) ListUsers(ctx context.Context, flag, order string, ascending bool) (*Page[UserListEntry], error) {
	if flag == "" {
		flag = UserFlagActive
	}
	query := map[string]any{
		"order": order,
		"page":  1,
	}
	if ascending {
		query["asc"] = true
	}
	return List(ctx, c, http.MethodGet, Combine("admin", "users", "list", flag), query, nil,
		PageNumberPaging{}, ItemsDecoder[UserListEntry](""))
}

// CreateUser creates a user. A response with success false is returned as an *APIError.
func (c *Client) CreateUser(ctx context.Context, user NewUser) (*CreateUserResult, error) {
	return PostAs[CreateUserResult](ctx, c, "users", nil, user)
}
