package discourse

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// groupsPageSize is the number of groups the server returns per page.
const groupsPageSize = 36

// Group visibility and interaction levels.
const (
	AliasLevelNobody            = 0
	AliasLevelOnlyAdmins        = 1
	AliasLevelMembersModsAdmins = 2
	AliasLevelEveryone          = 3
)

// Group is a user group.
type Group struct {
	Entry
	ID                              int    `json:"id"`
	Automatic                       bool   `json:"automatic"`
	Name                            string `json:"name"`
	DisplayName                     string `json:"display_name"`
	FullName                        string `json:"full_name"`
	UserCount                       int    `json:"user_count"`
	MentionableLevel                int    `json:"mentionable_level"`
	MessageableLevel                int    `json:"messageable_level"`
	VisibilityLevel                 int    `json:"visibility_level"`
	MembersVisibilityLevel          int    `json:"members_visibility_level"`
	PrimaryGroup                    bool   `json:"primary_group"`
	Title                           string `json:"title"`
	GrantTrustLevel                 *int   `json:"grant_trust_level"`
	IncomingEmail                   string `json:"incoming_email"`
	HasMessages                     bool   `json:"has_messages"`
	FlairURL                        string `json:"flair_url"`
	FlairBgColor                    string `json:"flair_bg_color"`
	FlairColor                      string `json:"flair_color"`
	BioRaw                          string `json:"bio_raw"`
	BioCooked                       string `json:"bio_cooked"`
	BioExcerpt                      string `json:"bio_excerpt"`
	PublicAdmission                 bool   `json:"public_admission"`
	PublicExit                      bool   `json:"public_exit"`
	AllowMembershipRequests         bool   `json:"allow_membership_requests"`
	DefaultNotificationLevel        int    `json:"default_notification_level"`
	MembershipRequestTemplate       string `json:"membership_request_template"`
	AutomaticMembershipEmailDomains string `json:"automatic_membership_email_domains"`
	IsGroupUser                     bool   `json:"is_group_user"`
	IsGroupOwner                    bool   `json:"is_group_owner"`
	Mentionable                     bool   `json:"mentionable"`
	Messageable                     bool   `json:"messageable"`
	CanSeeMembers                   bool   `json:"can_see_members"`
	PublishReadState                bool   `json:"publish_read_state"`
}

// GroupParams are the fields of a group create or update call.
type GroupParams struct {
	Name     string `json:"name,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Title    string `json:"title,omitempty"`
	BioRaw   string `json:"bio_raw,omitempty"`
	// Usernames and OwnerUsernames are comma separated.
	Usernames                       string `json:"usernames,omitempty"`
	OwnerUsernames                  string `json:"owner_usernames,omitempty"`
	AutomaticMembershipEmailDomains string `json:"automatic_membership_email_domains,omitempty"`
	VisibilityLevel                 *int   `json:"visibility_level,omitempty"`
	MentionableLevel                *int   `json:"mentionable_level,omitempty"`
	MessageableLevel                *int   `json:"messageable_level,omitempty"`
	MembersVisibilityLevel          *int   `json:"members_visibility_level,omitempty"`
	DefaultNotificationLevel        *int   `json:"default_notification_level,omitempty"`
	GrantTrustLevel                 *int   `json:"grant_trust_level,omitempty"`
	PrimaryGroup                    *bool  `json:"primary_group,omitempty"`
	PublicAdmission                 *bool  `json:"public_admission,omitempty"`
	PublicExit                      *bool  `json:"public_exit,omitempty"`
	AllowMembershipRequests         *bool  `json:"allow_membership_requests,omitempty"`
	FlairIcon                       string `json:"flair_icon,omitempty"`
	FlairBgColor                    string `json:"flair_bg_color,omitempty"`
	FlairColor                      string `json:"flair_color,omitempty"`
}

// GroupMember is a member or owner of a group.
type GroupMember struct {
	BasicUser
	Title        string     `json:"title"`
	LastPostedAt *time.Time `json:"last_posted_at"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
	AddedAt      *time.Time `json:"added_at"`
	Timezone     string     `json:"timezone"`
}

type groupMembersMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListGroups returns the first page of groups visible to the API user
func (c *Client) ListGroups(ctx context.Context) (*Page[Group], error) {
	return List(ctx, c, http.MethodGet, "groups", nil, nil, PageNumberPaging{}, decodeGroupList)
}

func decodeGroupList(doc *Document, page *Page[Group]) error {
	if err := ItemsDecoder[Group]("groups")(doc, page); err != nil {
		return err
	}
	page.TotalCount = doc.Int("total_rows_groups")
	page.PerPage = groupsPageSize
	return nil
}

// GetGroup returns a group by name
func (c *Client) GetGroup(ctx context.Context, name string) (*Group, error) {
	doc, err := c.Get(ctx, Combine("groups", name), nil)
	if err != nil {
		return nil, err
	}
	return Member[Group](doc, "group")
}

// CreateGroup creates a group. Without owners the API user becomes the owner.
func (c *Client) CreateGroup(ctx context.Context, params GroupParams) (*Group, error) {
	if params.OwnerUsernames == "" {
		params.OwnerUsernames = c.settings.APIUsername
	}
	doc, err := c.Post(ctx, Combine("admin", "groups"), nil, map[string]any{"group": params})
	if err != nil {
		return nil, err
	}
	return Member[Group](doc, "basic_group")
}

// UpdateGroup updates a group
func (c *Client) UpdateGroup(ctx context.Context, id int, params GroupParams) (*Document, error) {
	return c.Put(ctx, Combine("groups", id), nil, map[string]any{"group": params})
}

// AddGroupMembers adds users to a group
func (c *Client) AddGroupMembers(ctx context.Context, groupID int, usernames ...string) (*Document, error) {
	body := map[string]any{"usernames": strings.Join(usernames, ",")}
	return c.Put(ctx, Combine("groups", groupID, "members"), nil, body)
}

// ListGroupMembers returns the first page of members of a group. A nil req
// starts at offset 0 with DefaultPageLimit members per page.
func (c *Client) ListGroupMembers(ctx context.Context, name string, req *ListRequest) (*Page[GroupMember], error) {
	query := map[string]any{"limit": DefaultPageLimit, "offset": 0}
	if req != nil {
		if req.Limit > 0 {
			query["limit"] = req.Limit
		}
		query["offset"] = req.Offset
	}
	return List(ctx, c, http.MethodGet, Combine("groups", name, "members"), query, nil, OffsetPaging{}, decodeGroupMembers)
}

func decodeGroupMembers(doc *Document, page *Page[GroupMember]) error {
	if err := ItemsDecoder[GroupMember]("members")(doc, page); err != nil {
		return err
	}
	if _, ok := doc.Fields["meta"]; !ok {
		return nil
	}
	var meta groupMembersMeta
	if err := doc.Decode("meta", &meta); err != nil {
		return err
	}
	page.TotalCount = meta.Total
	if meta.Limit > 0 {
		page.Request.Limit = meta.Limit
	}
	page.Request.Offset = meta.Offset
	return nil
}

// GroupOwners returns the owners listed with a page of group members.
func GroupOwners(page *Page[GroupMember]) ([]GroupMember, error) {
	var owners []GroupMember
	if page.Document == nil {
		return nil, nil
	}
	if _, ok := page.Document.Fields["owners"]; !ok {
		return nil, nil
	}
	if err := page.Document.Decode("owners", &owners); err != nil {
		return nil, err
	}
	attachMetadata(owners, &page.MetaData)
	return owners, nil
}
