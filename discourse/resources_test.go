package discourse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid settings",
			settings: testSettings("https://forum.test"),
		},
		{
			name:     "missing URL",
			settings: Settings{ApplicationName: "app"},
			wantErr:  true,
			errMsg:   "server URL is required",
		},
		{
			name:     "relative URL",
			settings: Settings{ServerURL: "forum.test", ApplicationName: "app"},
			wantErr:  true,
			errMsg:   "absolute http(s) URL",
		},
		{
			name:     "missing application name",
			settings: Settings{ServerURL: "https://forum.test"},
			wantErr:  true,
			errMsg:   "application name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.settings, testLogger())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://forum.test/", client.baseURL)
			assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
		})
	}
}

func TestClientOptions(t *testing.T) {
	custom := &http.Client{}
	client, err := NewClient(testSettings("https://forum.test"), testLogger(),
		WithHTTPClient(custom))
	require.NoError(t, err)
	assert.NotNil(t, client.httpClient.CheckRedirect)
	assert.Nil(t, custom.CheckRedirect)

	client, err = NewClient(testSettings("https://forum.test"), testLogger(),
		WithTimeout(5*defaultTimeout))
	require.NoError(t, err)
	assert.Equal(t, 5*defaultTimeout, client.httpClient.Timeout)
}

func TestCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/categories":
			writeJSON(w, http.StatusOK, map[string]any{
				"category_list": map[string]any{
					"can_create_category": true,
					"categories": []map[string]any{
						{"id": 1, "name": "General"},
						{"id": 2, "name": "Support"},
					},
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/categories":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "Announcements", r.PostForm.Get("name"))
			assert.Equal(t, "0088CC", r.PostForm.Get("color"))
			assert.Equal(t, "FFFFFF", r.PostForm.Get("text_color"))
			assert.Equal(t, "1", r.PostForm.Get("permissions[staff]"))
			writeJSON(w, http.StatusOK, map[string]any{"category": map[string]any{"id": 9, "name": "Announcements"}})
		case r.Method == http.MethodPut && r.URL.Path == "/categories/9":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "News", r.PostForm.Get("name"))
			writeJSON(w, http.StatusOK, map[string]any{"success": "OK", "category": map[string]any{"id": 9, "name": "News"}})
		case r.Method == http.MethodDelete && r.URL.Path == "/categories/9":
			writeJSON(w, http.StatusOK, map[string]any{"success": "OK"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	list, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.True(t, list.CategoryList.CanCreateCategory)
	require.Len(t, list.CategoryList.Categories, 2)
	assert.Equal(t, "Support", list.CategoryList.Categories[1].Name)

	params := NewCategoryParams("Announcements")
	params.Permissions = Permissions{}
	params.Permissions.Set("staff", PermissionCreate)
	created, err := client.CreateCategory(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)

	updated, err := client.UpdateCategory(ctx, 9, CategoryParams{Name: "News"})
	require.NoError(t, err)
	assert.Equal(t, "News", updated.Name)

	require.NoError(t, client.DeleteCategory(ctx, 9))
}

func TestTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/posts":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "Release notes", r.PostForm.Get("title"))
			assert.Equal(t, "4", r.PostForm.Get("category"))
			assert.Equal(t, "Everything that changed", r.PostForm.Get("raw"))
			assert.Empty(t, r.PostForm.Get("created_at"))
			writeJSON(w, http.StatusOK, map[string]any{"id": 100, "topic_id": 55, "post_number": 1})
		case r.Method == http.MethodGet && r.URL.Path == "/t/55":
			writeJSON(w, http.StatusOK, map[string]any{
				"id":    55,
				"title": "Release notes",
				"post_stream": map[string]any{
					"posts":  []map[string]any{{"id": 100, "post_number": 1, "cooked": "<p>Everything</p>"}},
					"stream": []int{100},
				},
				"details": map[string]any{
					"can_edit":   true,
					"created_by": map[string]any{"id": 1, "username": "system"},
				},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/t/-/55":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "Release notes 2.0", r.PostForm.Get("title"))
			assert.Equal(t, "7", r.PostForm.Get("category_id"))
			writeJSON(w, http.StatusOK, map[string]any{"basic_topic": map[string]any{"id": 55, "title": "Release notes 2.0"}})
		case r.Method == http.MethodPost && r.URL.Path == "/t/55/change-owner":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostForm.Get("username"))
			assert.Equal(t, []string{"100", "101"}, r.PostForm["post_ids[]"])
			writeJSON(w, http.StatusOK, map[string]any{"success": "OK"})
		case r.Method == http.MethodDelete && r.URL.Path == "/t/55":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	post, err := client.CreateTopic(ctx, NewTopic{Title: "Release notes", CategoryID: 4, Raw: "Everything that changed"})
	require.NoError(t, err)
	assert.Equal(t, 55, post.TopicID)

	topic, err := client.GetTopic(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, "Release notes", topic.Title)
	require.Len(t, topic.PostStream.Posts, 1)
	assert.Equal(t, "<p>Everything</p>", topic.PostStream.Posts[0].Cooked)
	assert.True(t, topic.Details.CanEdit)
	require.NotNil(t, topic.Details.CreatedBy)
	assert.Equal(t, "system", topic.Details.CreatedBy.Username)
	require.NotNil(t, topic.MetaData)

	basic, err := client.UpdateTopic(ctx, 55, "Release notes 2.0", 7)
	require.NoError(t, err)
	assert.Equal(t, "Release notes 2.0", basic.Title)

	_, err = client.ChangePostOwners(ctx, 55, "alice", 100, 101)
	require.NoError(t, err)

	require.NoError(t, client.DeleteTopic(ctx, 55))
}

func TestPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/t/55/posts":
			writeJSON(w, http.StatusOK, map[string]any{
				"post_stream": map[string]any{
					"posts": []map[string]any{{"id": 100}, {"id": 101}},
				},
				"id": 55,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/posts/101":
			writeJSON(w, http.StatusOK, map[string]any{"id": 101, "raw": "hello", "topic_id": 55})
		case r.Method == http.MethodPost && r.URL.Path == "/posts":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "55", r.PostForm.Get("topic_id"))
			assert.Equal(t, "a reply", r.PostForm.Get("raw"))
			writeJSON(w, http.StatusOK, map[string]any{"id": 102, "topic_id": 55})
		case r.Method == http.MethodPut && r.URL.Path == "/posts/101":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "edited", r.PostForm.Get("post[raw]"))
			writeJSON(w, http.StatusOK, map[string]any{"post": map[string]any{"id": 101, "raw": "edited", "version": 2}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	stream, err := client.ListPosts(ctx, 55)
	require.NoError(t, err)
	require.Len(t, stream.Posts, 2)
	require.NotNil(t, stream.Posts[1].MetaData)
	assert.Equal(t, server.URL+"/t/55/posts", stream.Posts[1].MetaData.URI)

	post, err := client.GetPost(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Raw)

	reply, err := client.CreatePost(ctx, NewPost{TopicID: 55, Raw: "a reply"})
	require.NoError(t, err)
	assert.Equal(t, 102, reply.ID)

	edited, err := client.UpdatePost(ctx, 101, "edited")
	require.NoError(t, err)
	assert.Equal(t, 2, edited.Version)
}

func TestUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/alice":
			writeJSON(w, http.StatusOK, map[string]any{
				"user": map[string]any{"id": 2, "username": "alice", "trust_level": 2},
			})
		case r.URL.Path == "/u/by-external/sso-7":
			writeJSON(w, http.StatusOK, map[string]any{
				"user": map[string]any{"id": 7, "username": "bob", "external_id": "sso-7"},
			})
		case r.URL.Path == "/admin/users/list/all":
			assert.Equal(t, "a@example.com", r.URL.Query().Get("email"))
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 2, "username": "alice", "active": true}})
		case r.URL.Path == "/admin/users/list/staff":
			assert.Equal(t, "created", r.URL.Query().Get("order"))
			assert.Equal(t, "true", r.URL.Query().Get("asc"))
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "username": "system", "admin": true}})
		case r.Method == http.MethodPost && r.URL.Path == "/users":
			assert.NoError(t, r.ParseForm())
			if r.PostForm.Get("username") == "taken" {
				writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Username must be unique"})
				return
			}
			assert.Equal(t, "true", r.PostForm.Get("active"))
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "active": true, "message": "created", "user_id": 12})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	user, err := client.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, user.User.ID)
	assert.Equal(t, 2, user.User.TrustLevel)

	external, err := client.GetUserByExternalID(ctx, "sso-7")
	require.NoError(t, err)
	assert.Equal(t, "sso-7", external.User.ExternalID)

	byEmail, err := client.GetUsersByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail.Items, 1)
	assert.True(t, byEmail.Items[0].Active)
	assert.Equal(t, 1, byEmail.PageNumber)
	assert.False(t, byEmail.HasMore())

	staff, err := client.ListUsers(ctx, UserFlagStaff, "created", true)
	require.NoError(t, err)
	require.Len(t, staff.Items, 1)
	assert.True(t, staff.Items[0].Admin)

	active := true
	created, err := client.CreateUser(ctx, NewUser{Name: "Carol", Email: "c@example.com", Password: "secret-password", Username: "carol", Active: &active})
	require.NoError(t, err)
	assert.Equal(t, 12, created.UserID)

	_, err = client.CreateUser(ctx, NewUser{Name: "Dup", Email: "d@example.com", Password: "secret-password", Username: "taken"})
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.Embedded)
	assert.Equal(t, "Username must be unique", apiErr.Message)
}

func TestGetUsers(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/users/")
		mu.Lock()
		seen = append(seen, name)
		mu.Unlock()
		if name == "ghost" {
			writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{"not found"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"username": name}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	users, err := client.GetUsers(ctx, "alice", "bob", "carol", "dave", "erin")
	require.NoError(t, err)
	require.Len(t, users, 5)
	for i, name := range []string{"alice", "bob", "carol", "dave", "erin"} {
		assert.Equal(t, name, users[i].User.Username)
	}
	mu.Lock()
	sort.Strings(seen)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave", "erin"}, seen)
	mu.Unlock()

	_, err = client.GetUsers(ctx, "alice", "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestGroups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/groups":
			writeJSON(w, http.StatusOK, map[string]any{
				"groups":            []map[string]any{{"id": 1, "name": "admins", "automatic": true}, {"id": 41, "name": "testers"}},
				"total_rows_groups": 2,
				"load_more_groups":  "/groups?page=1",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/groups/testers":
			writeJSON(w, http.StatusOK, map[string]any{"group": map[string]any{"id": 41, "name": "testers", "user_count": 3}})
		case r.Method == http.MethodPost && r.URL.Path == "/admin/groups":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "beta", r.PostForm.Get("group[name]"))
			assert.Equal(t, "system", r.PostForm.Get("group[owner_usernames]"))
			assert.Equal(t, "1", r.PostForm.Get("group[visibility_level]"))
			writeJSON(w, http.StatusOK, map[string]any{"basic_group": map[string]any{"id": 42, "name": "beta"}})
		case r.Method == http.MethodPut && r.URL.Path == "/groups/42":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "Beta testers", r.PostForm.Get("group[full_name]"))
			writeJSON(w, http.StatusOK, map[string]any{"success": "OK"})
		case r.Method == http.MethodPut && r.URL.Path == "/groups/42/members":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "alice,bob", r.PostForm.Get("usernames"))
			writeJSON(w, http.StatusOK, map[string]any{"success": "OK", "usernames": []string{"alice", "bob"}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	groups, err := client.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, groups.TotalCount)
	require.Len(t, groups.Items, 2)
	assert.True(t, groups.Items[0].Automatic)
	assert.False(t, groups.HasMore())
	assert.Equal(t, server.URL+"/groups", groups.Items[0].MetaData.URI)

	group, err := client.GetGroup(ctx, "testers")
	require.NoError(t, err)
	assert.Equal(t, 3, group.UserCount)

	visible := AliasLevelOnlyAdmins
	created, err := client.CreateGroup(ctx, GroupParams{Name: "beta", VisibilityLevel: &visible})
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)

	_, err = client.UpdateGroup(ctx, 42, GroupParams{FullName: "Beta testers"})
	require.NoError(t, err)

	_, err = client.AddGroupMembers(ctx, 42, "alice", "bob")
	require.NoError(t, err)
}
