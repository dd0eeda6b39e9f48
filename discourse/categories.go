package discourse

import (
	"context"
)

// Default colors of a new category.
const (
	DefaultCategoryColor     = "0088CC"
	DefaultCategoryTextColor = "FFFFFF"
)

// PermissionLevel is the access a group has to a category.
type PermissionLevel int

// Permission levels, as numbered by Discourse.
const (
	PermissionNone PermissionLevel = iota
	PermissionCreate
	PermissionReply
	PermissionSee
)

// String returns the name of the level.
func (p PermissionLevel) String() string {
	switch p {
	case PermissionCreate:
		return "create"
	case PermissionReply:
		return "reply"
	case PermissionSee:
		return "see"
	default:
		return "none"
	}
}

// Permissions maps group names to their access level.
type Permissions map[string]PermissionLevel

// Set grants level to group. PermissionNone removes the group.
func (p Permissions) Set(group string, level PermissionLevel) {
	if level == PermissionNone {
		delete(p, group)
		return
	}
	p[group] = level
}

// Level returns the access level of group.
func (p Permissions) Level(group string) PermissionLevel {
	return p[group]
}

// GroupPermission is a group's access to a category as returned by the server.
type GroupPermission struct {
	Entry
	PermissionType PermissionLevel `json:"permission_type"`
	GroupName      string          `json:"group_name"`
}

// Category is a forum category.
type Category struct {
	Entry
	ID                           int               `json:"id"`
	Name                         string            `json:"name"`
	Color                        string            `json:"color"`
	TextColor                    string            `json:"text_color"`
	Slug                         string            `json:"slug"`
	TopicCount                   int               `json:"topic_count"`
	PostCount                    int               `json:"post_count"`
	Position                     int               `json:"position"`
	Description                  string            `json:"description"`
	DescriptionText              string            `json:"description_text"`
	DescriptionExcerpt           string            `json:"description_excerpt"`
	TopicURL                     string            `json:"topic_url"`
	ReadRestricted               bool              `json:"read_restricted"`
	Permission                   *int              `json:"permission"`
	NotificationLevel            *int              `json:"notification_level"`
	CanEdit                      bool              `json:"can_edit"`
	TopicTemplate                string            `json:"topic_template"`
	HasChildren                  bool              `json:"has_children"`
	SortOrder                    string            `json:"sort_order"`
	SortAscending                *bool             `json:"sort_ascending"`
	ShowSubcategoryList          bool              `json:"show_subcategory_list"`
	NumFeaturedTopics            int               `json:"num_featured_topics"`
	DefaultView                  string            `json:"default_view"`
	SubcategoryListStyle         string            `json:"subcategory_list_style"`
	DefaultTopPeriod             string            `json:"default_top_period"`
	MinimumRequiredTags          int               `json:"minimum_required_tags"`
	NavigateToFirstPostAfterRead bool              `json:"navigate_to_first_post_after_read"`
	ParentCategoryID             *int              `json:"parent_category_id"`
	SubcategoryIDs               []int             `json:"subcategory_ids"`
	AvailableGroups              []string          `json:"available_groups"`
	GroupPermissions             []GroupPermission `json:"group_permissions"`
	CustomFields                 map[string]any    `json:"custom_fields"`
	UploadedLogo                 map[string]any    `json:"uploaded_logo"`
	UploadedBackground           map[string]any    `json:"uploaded_background"`
}

// CategoryList is the category_list member of the categories index.
type CategoryList struct {
	Entry
	CanCreateCategory bool       `json:"can_create_category"`
	CanCreateTopic    bool       `json:"can_create_topic"`
	Draft             any        `json:"draft"`
	DraftKey          string     `json:"draft_key"`
	DraftSequence     int        `json:"draft_sequence"`
	Categories        []Category `json:"categories"`
}

// CategoriesResponse is the categories index.
type CategoriesResponse struct {
	Entry
	CategoryList CategoryList `json:"category_list"`
}

// CategoryParams are the fields of a category create or update call.
type CategoryParams struct {
	Name                string            `json:"name"`
	Color               string            `json:"color,omitempty"`
	TextColor           string            `json:"text_color,omitempty"`
	Slug                string            `json:"slug,omitempty"`
	ParentCategoryID    *int              `json:"parent_category_id,omitempty"`
	Position            *int              `json:"position,omitempty"`
	Description         string            `json:"description,omitempty"`
	TopicTemplate       string            `json:"topic_template,omitempty"`
	SortOrder           string            `json:"sort_order,omitempty"`
	SortAscending       *bool             `json:"sort_ascending,omitempty"`
	DefaultView         string            `json:"default_view,omitempty"`
	AllowBadges         *bool             `json:"allow_badges,omitempty"`
	SearchPriority      *int              `json:"search_priority,omitempty"`
	EmailIn             string            `json:"email_in,omitempty"`
	NumFeaturedTopics   *int              `json:"num_featured_topics,omitempty"`
	ShowSubcategoryList *bool             `json:"show_subcategory_list,omitempty"`
	Permissions         Permissions       `json:"permissions,omitempty"`
	CustomFields        map[string]string `json:"custom_fields,omitempty"`
}

// NewCategoryParams returns params for a category named name with the default colors.
func NewCategoryParams(name string) CategoryParams {
	return CategoryParams{
		Name:      name,
		Color:     DefaultCategoryColor,
		TextColor: DefaultCategoryTextColor,
	}
}

// ListCategories returns the top level categories
func (c *Client) ListCategories(ctx context.Context) (*CategoriesResponse, error) {
	return GetAs[CategoriesResponse](ctx, c, "categories", nil)
}

// GetCategory returns a category by ID
func (c *Client) GetCategory(ctx context.Context, id int) (*Category, error) {
	doc, err := c.Get(ctx, Combine("c", id, "show"), nil)
	if err != nil {
		return nil, err
	}
	return Member[Category](doc, "category")
}

// CreateCategory creates a category
func (c *Client) CreateCategory(ctx context.Context, params CategoryParams) (*Category, error) {
	doc, err := c.Post(ctx, "categories", nil, params)
	if err != nil {
		return nil, err
	}
	return Member[Category](doc, "category")
}

// UpdateCategory updates a category
func (c *Client) UpdateCategory(ctx context.Context, id int, params CategoryParams) (*Category, error) {
	doc, err := c.Put(ctx, Combine("categories", id), nil, params)
	if err != nil {
		return nil, err
	}
	return Member[Category](doc, "category")
}

// DeleteCategory deletes a category
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	_, err := c.Delete(ctx, Combine("categories", id), nil)
	return err
}
