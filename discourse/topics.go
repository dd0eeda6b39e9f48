package discourse

import (
	"context"
	"net/http"
	"time"
)

// Topic is a topic as it appears in topic lists.
type Topic struct {
	Entry
	ID                 int            `json:"id"`
	Title              string         `json:"title"`
	FancyTitle         string         `json:"fancy_title"`
	Slug               string         `json:"slug"`
	PostsCount         int            `json:"posts_count"`
	ReplyCount         int            `json:"reply_count"`
	HighestPostNumber  int            `json:"highest_post_number"`
	ImageURL           string         `json:"image_url"`
	CreatedAt          time.Time      `json:"created_at"`
	LastPostedAt       *time.Time     `json:"last_posted_at"`
	BumpedAt           *time.Time     `json:"bumped_at"`
	Bumped             bool           `json:"bumped"`
	Unseen             bool           `json:"unseen"`
	Pinned             bool           `json:"pinned"`
	PinnedGlobally     bool           `json:"pinned_globally"`
	Unpinned           *bool          `json:"unpinned"`
	Excerpt            string         `json:"excerpt"`
	Visible            bool           `json:"visible"`
	Closed             bool           `json:"closed"`
	Archived           bool           `json:"archived"`
	Bookmarked         *bool          `json:"bookmarked"`
	Liked              *bool          `json:"liked"`
	Views              int            `json:"views"`
	LikeCount          int            `json:"like_count"`
	HasSummary         bool           `json:"has_summary"`
	Archetype          string         `json:"archetype"`
	LastPosterUsername string         `json:"last_poster_username"`
	CategoryID         int            `json:"category_id"`
	Tags               []string       `json:"tags"`
	Posters            []TopicPoster  `json:"posters"`
	FeaturedLink       string         `json:"featured_link"`
	ThumbnailURLs      map[string]any `json:"thumbnails"`
}

// TopicPoster is a participant listed with a topic.
type TopicPoster struct {
	Entry
	Extras         string `json:"extras"`
	Description    string `json:"description"`
	UserID         int    `json:"user_id"`
	PrimaryGroupID *int   `json:"primary_group_id"`
}

// BasicUser is the short form of a user embedded in other results.
type BasicUser struct {
	Entry
	ID             int    `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	AvatarTemplate string `json:"avatar_template"`
}

// TopicList is the topic_list member of a category listing.
type TopicList struct {
	Entry
	CanCreateTopic bool    `json:"can_create_topic"`
	Draft          any     `json:"draft"`
	DraftKey       string  `json:"draft_key"`
	DraftSequence  int     `json:"draft_sequence"`
	PerPage        int     `json:"per_page"`
	Topics         []Topic `json:"topics"`
}

// TopicListResponse is a category listing.
type TopicListResponse struct {
	Entry
	Users         []BasicUser `json:"users"`
	PrimaryGroups []any       `json:"primary_groups"`
	TopicList     TopicList   `json:"topic_list"`
}

// Participant is a user who posted in a topic.
type Participant struct {
	BasicUser
	PostCount      int  `json:"post_count"`
	PrimaryGroupID *int `json:"primary_group_id"`
}

// TopicDetails is the details member of a full topic.
type TopicDetails struct {
	Entry
	NotificationLevel     int           `json:"notification_level"`
	CanMovePosts          bool          `json:"can_move_posts"`
	CanEdit               bool          `json:"can_edit"`
	CanDelete             bool          `json:"can_delete"`
	CanRemoveAllowedUsers bool          `json:"can_remove_allowed_users"`
	CanCreatePost         bool          `json:"can_create_post"`
	CanReplyAsNewTopic    bool          `json:"can_reply_as_new_topic"`
	CanFlagTopic          bool          `json:"can_flag_topic"`
	Participants          []Participant `json:"participants"`
	CreatedBy             *BasicUser    `json:"created_by"`
	LastPoster            *BasicUser    `json:"last_poster"`
}

// FullTopic is a topic with its first posts and details.
type FullTopic struct {
	Topic
	PostStream        PostStream   `json:"post_stream"`
	TimelineLookup    [][]any      `json:"timeline_lookup"`
	SuggestedTopics   []Topic      `json:"suggested_topics"`
	WordCount         *int         `json:"word_count"`
	UserID            int          `json:"user_id"`
	DeletedAt         *time.Time   `json:"deleted_at"`
	DeletedBy         *BasicUser   `json:"deleted_by"`
	PinnedAt          *time.Time   `json:"pinned_at"`
	PinnedUntil       *time.Time   `json:"pinned_until"`
	ChunkSize         int          `json:"chunk_size"`
	ParticipantCount  int          `json:"participant_count"`
	CurrentPostNumber *int         `json:"current_post_number"`
	Details           TopicDetails `json:"details"`
}

// NewTopic are the fields of a topic create call.
type NewTopic struct {
	Title      string `json:"title"`
	CategoryID int    `json:"category"`
	Raw        string `json:"raw"`
	// Username posts as another user; requires an admin API key.
	Username  string     `json:"api_username,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ListTopics returns a page of the topics in a category. Pages are numbered from 0.
func (c *Client) ListTopics(ctx context.Context, categoryID int, includeSubcategories bool, page int) (*Page[Topic], error) {
	query := map[string]any{"page": page}
	if !includeSubcategories {
		query["no_subcategories"] = true
	}
	return List(ctx, c, http.MethodGet, Combine("c", categoryID), query, nil, PageNumberPaging{}, decodeTopicList)
}

func decodeTopicList(doc *Document, page *Page[Topic]) error {
	var list TopicList
	if err := doc.Decode("topic_list", &list); err != nil {
		return err
	}
	page.Items = list.Topics
	page.PerPage = list.PerPage
	return nil
}

// GetTopic returns a topic with its posts
func (c *Client) GetTopic(ctx context.Context, id int) (*FullTopic, error) {
	return GetAs[FullTopic](ctx, c, Combine("t", id), nil)
}

// CreateTopic creates a topic and returns its first post
func (c *Client) CreateTopic(ctx context.Context, topic NewTopic) (*Post, error) {
	return PostAs[Post](ctx, c, "posts", nil, topic)
}

// UpdateTopic changes the title and category of a topic. A zero categoryID
// leaves the category unchanged.
func (c *Client) UpdateTopic(ctx context.Context, id int, title string, categoryID int) (*BasicTopic, error) {
	body := map[string]any{"title": title}
	if categoryID != 0 {
		body["category_id"] = categoryID
	}
	doc, err := c.Put(ctx, Combine("t", "-", id), nil, body)
	if err != nil {
		return nil, err
	}
	return Member[BasicTopic](doc, "basic_topic")
}

// BasicTopic is the short form of a topic returned by updates.
type BasicTopic struct {
	Entry
	ID         int    `json:"id"`
	Title      string `json:"title"`
	FancyTitle string `json:"fancy_title"`
	Slug       string `json:"slug"`
	PostsCount int    `json:"posts_count"`
}

// ChangePostOwners reassigns posts of a topic to username
func (c *Client) ChangePostOwners(ctx context.Context, topicID int, username string, postIDs ...int) (*Document, error) {
	body := map[string]any{
		"username": username,
		"post_ids": postIDs,
	}
	return c.Post(ctx, Combine("t", topicID, "change-owner"), nil, body)
}

// DeleteTopic deletes a topic
func (c *Client) DeleteTopic(ctx context.Context, id int) error {
	_, err := c.Delete(ctx, Combine("t", id), nil)
	return err
}
