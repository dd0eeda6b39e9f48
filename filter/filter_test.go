package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/s0up4200/discoursectl/discourse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testTopics() []discourse.Topic {
	lastWeek := fixedNow.AddDate(0, 0, -7)
	lastYear := fixedNow.AddDate(-1, 0, 0)
	return []discourse.Topic{
		{
			ID:           1,
			Title:        "Welcome to the forum",
			PostsCount:   3,
			CreatedAt:    lastYear,
			LastPostedAt: &lastWeek,
			Tags:         []string{"meta"},
		},
		{
			ID:           2,
			Title:        "Go generics questions",
			PostsCount:   42,
			CreatedAt:    lastYear,
			LastPostedAt: &lastYear,
			Closed:       true,
			Tags:         []string{"golang", "help"},
		},
		{
			ID:         3,
			Title:      "Draft ideas",
			PostsCount: 1,
			CreatedAt:  lastWeek,
			Entry: discourse.Entry{Extra: map[string]any{
				"custom_score": 7,
				"title":        "shadowed title",
			}},
		},
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `posts_count > 10`,
		},
		{
			name:        "empty expression",
			expression:  "  ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `includes(title, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "helpers",
			expression: `daysSince(created_at) > 30 and includes(title, "go") and "help" in tags`,
		},
		{
			name:       "wrong helper arity",
			expression: `daysAgo()`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var cerr *CompilationError
				require.True(t, errors.As(err, &cerr))
				assert.Equal(t, tt.expression, cerr.Expression)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.Expression())
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       []int
	}{
		{
			name:       "numeric comparison",
			expression: `posts_count > 2`,
			want:       []int{1, 2},
		},
		{
			name:       "boolean field",
			expression: `closed`,
			want:       []int{2},
		},
		{
			name:       "tag membership",
			expression: `"golang" in tags`,
			want:       []int{2},
		},
		{
			name:       "case-insensitive substring",
			expression: `includes(title, "GO ")`,
			want:       []int{2},
		},
		{
			name:       "recent activity",
			expression: `last_posted_at != nil and daysSince(last_posted_at) < 30`,
			want:       []int{1},
		},
		{
			name:       "created recently",
			expression: `daysSince(created_at) <= 7`,
			want:       []int{3},
		},
		{
			name:       "extra members are promoted",
			expression: `custom_score != nil`,
			want:       []int{3},
		},
		{
			name:       "declared fields win over extra members",
			expression: `title == "Draft ideas"`,
			want:       []int{3},
		},
		{
			name:       "parsed dates",
			expression: `daysSince(parseDate("2025-05-01")) == 31 and id == 1`,
			want:       []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expression, WithClock(clock))
			require.NoError(t, err)

			matched, err := Apply(f, testTopics())
			require.NoError(t, err)

			ids := make([]int, 0, len(matched))
			for _, topic := range matched {
				ids = append(ids, topic.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestApplyNilFilter(t *testing.T) {
	topics := testTopics()
	matched, err := Apply(nil, topics)
	require.NoError(t, err)
	assert.Len(t, matched, len(topics))
}

func TestMatchErrors(t *testing.T) {
	f, err := Compile(`daysSince(last_posted_at) > 1`, WithClock(clock))
	require.NoError(t, err)

	// Topic 3 has no last post date.
	_, err = Apply(f, testTopics())
	require.Error(t, err)
	var eerr *EvaluationError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "item 3 (Draft ideas)", eerr.Item)
	assert.Contains(t, err.Error(), "date is null")

	f, err = Compile(`title`)
	require.NoError(t, err)
	_, err = f.Match(map[string]any{"title": "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not bool")

	_, err = f.Match([]int{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an object")
}

func TestMatchMap(t *testing.T) {
	f, err := Compile(`username == "alice" and trust_level >= 2`)
	require.NoError(t, err)

	ok, err := f.Match(map[string]any{"username": "alice", "trust_level": 3})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(map[string]any{"username": "bob", "trust_level": 3})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager(t *testing.T) {
	m := NewManager(WithCompileOptions(WithClock(clock)), WithCacheSize(2))

	require.NoError(t, m.RegisterFilters(map[string]string{
		"busy":   "posts_count > 10",
		"closed": "closed",
	}))
	assert.Equal(t, []string{"busy", "closed"}, m.ListFilters())

	err := m.RegisterFilters(map[string]string{"broken": "posts_count >"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile filter 'broken'")
	_, exists := m.GetFilter("broken")
	assert.False(t, exists)

	busy, err := m.Resolve("busy")
	require.NoError(t, err)
	assert.Equal(t, "posts_count > 10", busy.Expression())

	adHoc, err := m.Resolve("id == 3")
	require.NoError(t, err)
	again, err := m.Resolve("id == 3")
	require.NoError(t, err)
	assert.Same(t, adHoc, again)

	none, err := m.Resolve("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = m.Resolve("id ==")
	require.Error(t, err)
}

func TestLRUCache(t *testing.T) {
	c := newLRUCache[int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	// "b" is now the least recently used entry.
	c.Put("c", 3)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("a", 10)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)
}
