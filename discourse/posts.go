package discourse

import (
	"context"
	"time"
)

// Post is a single post.
type Post struct {
	Entry
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	Username          string          `json:"username"`
	AvatarTemplate    string          `json:"avatar_template"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         *time.Time      `json:"updated_at"`
	DeletedAt         *time.Time      `json:"deleted_at"`
	Cooked            string          `json:"cooked"`
	Raw               string          `json:"raw"`
	PostNumber        int             `json:"post_number"`
	PostType          int             `json:"post_type"`
	ReplyCount        int             `json:"reply_count"`
	ReplyToPostNumber *int            `json:"reply_to_post_number"`
	QuoteCount        int             `json:"quote_count"`
	IncomingLinkCount int             `json:"incoming_link_count"`
	Reads             int             `json:"reads"`
	ReadersCount      int             `json:"readers_count"`
	Score             float64         `json:"score"`
	Yours             bool            `json:"yours"`
	TopicID           int             `json:"topic_id"`
	TopicSlug         string          `json:"topic_slug"`
	DisplayUsername   string          `json:"display_username"`
	Version           int             `json:"version"`
	CanEdit           bool            `json:"can_edit"`
	CanDelete         bool            `json:"can_delete"`
	CanRecover        bool            `json:"can_recover"`
	CanWiki           bool            `json:"can_wiki"`
	Bookmarked        bool            `json:"bookmarked"`
	Moderator         bool            `json:"moderator"`
	Admin             bool            `json:"admin"`
	Staff             bool            `json:"staff"`
	UserID            int             `json:"user_id"`
	Hidden            bool            `json:"hidden"`
	TrustLevel        int             `json:"trust_level"`
	UserDeleted       bool            `json:"user_deleted"`
	Wiki              bool            `json:"wiki"`
	LinkCounts        []LinkCount     `json:"link_counts"`
	ActionsSummary    []ActionSummary `json:"actions_summary"`
}

// LinkCount is a link found in a post.
type LinkCount struct {
	Entry
	URL        string `json:"url"`
	Internal   bool   `json:"internal"`
	Reflection bool   `json:"reflection"`
	Title      string `json:"title"`
	Clicks     int    `json:"clicks"`
}

// ActionSummary counts one kind of action taken on a post.
type ActionSummary struct {
	Entry
	ID     int  `json:"id"`
	Count  int  `json:"count"`
	Hidden bool `json:"hidden"`
	CanAct bool `json:"can_act"`
}

// PostStream holds the posts of a topic and the IDs of all of them.
type PostStream struct {
	Entry
	Posts  []Post `json:"posts"`
	Stream []int  `json:"stream"`
}

// NewPost are the fields of a reply.
type NewPost struct {
	TopicID int    `json:"topic_id"`
	Raw     string `json:"raw"`
	// ReplyToPostNumber answers a specific post of the topic.
	ReplyToPostNumber int        `json:"reply_to_post_number,omitempty"`
	Username          string     `json:"api_username,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// ListPosts returns the post stream of a topic
func (c *Client) ListPosts(ctx context.Context, topicID int) (*PostStream, error) {
	doc, err := c.Get(ctx, Combine("t", topicID, "posts"), nil)
	if err != nil {
		return nil, err
	}
	stream, err := Member[PostStream](doc, "post_stream")
	if err != nil {
		return nil, err
	}
	attachMetadata(stream.Posts, &doc.MetaData)
	return stream, nil
}

// GetPost returns a post by ID
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	return GetAs[Post](ctx, c, Combine("posts", id), nil)
}

// CreatePost replies to a topic
func (c *Client) CreatePost(ctx context.Context, post NewPost) (*Post, error) {
	return PostAs[Post](ctx, c, "posts", nil, post)
}

// UpdatePost replaces the raw content of a post
func (c *Client) UpdatePost(ctx context.Context, id int, raw string) (*Post, error) {
	body := map[string]any{
		"post": map[string]any{"raw": raw},
	}
	doc, err := c.Put(ctx, Combine("posts", id), nil, body)
	if err != nil {
		return nil, err
	}
	return Member[Post](doc, "post")
}
