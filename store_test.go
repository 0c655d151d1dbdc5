package pubcontent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubcontent/schema"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(slug string, pub time.Time, tags ...string) Entry {
	if tags == nil {
		tags = []string{}
	}
	return Entry{
		ID:   slug,
		Slug: slug,
		Path: "src/content/blog/" + slug + ".md",
		Data: schema.PostFrontMatter{
			Title:       "Post " + slug,
			Description: "About " + slug,
			PubDate:     pub,
			Tags:        tags,
		},
		Body:     "body of " + slug,
		Checksum: "sum-" + slug,
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e := testEntry("hello", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "Go", "Testing")
	e.Data.UpdatedDate = schema.Some(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC))
	e.Data.HeroImage = schema.Some(schema.AssetRef{Src: "src/content/blog/hero.png", Width: 10, Height: 5, Format: "png"})
	require.NoError(t, s.SavePost(ctx, e))

	got, err := s.GetPost(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Path, got.Path)
	assert.Equal(t, e.Data.Title, got.Data.Title)
	assert.Equal(t, e.Data.Description, got.Data.Description)
	assert.True(t, e.Data.PubDate.Equal(got.Data.PubDate))
	updated, ok := got.Data.UpdatedDate.Get()
	require.True(t, ok)
	assert.True(t, updated.Equal(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, e.Data.HeroImage, got.Data.HeroImage)
	assert.False(t, got.Data.SocialImage.IsSet())
	assert.Equal(t, []string{"Go", "Testing"}, got.Data.Tags, "stored tags keep their case")
	assert.Equal(t, e.Body, got.Body)
	assert.Equal(t, e.Checksum, got.Checksum)
}

func TestSavePostUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e := testEntry("update", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "original")
	require.NoError(t, s.SavePost(ctx, e))

	e.Data.Title = "Updated Title"
	e.Data.Tags = []string{"updated", "modified"}
	require.NoError(t, s.SavePost(ctx, e))

	got, err := s.GetPost(ctx, "update")
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", got.Data.Title)
	assert.Len(t, got.Data.Tags, 2)
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPost(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsOrderAndTagFilter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePost(ctx, testEntry("old", time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), "go")))
	require.NoError(t, s.SavePost(ctx, testEntry("new", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "Go", "web")))
	require.NoError(t, s.SavePost(ctx, testEntry("mid", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))))

	all, err := s.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, slugs(all))

	tagged, err := s.ListPosts(ctx, " GO ")
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, slugs(tagged))

	none, err := s.ListPosts(ctx, "rust")
	require.NoError(t, err)
	assert.Empty(t, none)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, tags)
}

func TestSync(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SavePost(ctx, testEntry("stale", day)))

	stats, err := s.Sync(ctx, []Entry{testEntry("a", day), testEntry("b", day.AddDate(0, 0, 1))})
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Saved: 2, Removed: 1}, stats)

	posts, err := s.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, slugs(posts))

	stats, err = s.Sync(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Removed: 2}, stats)
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePost(ctx, testEntry("gone", time.Now())))
	require.NoError(t, s.DeletePost(ctx, "gone"))
	_, err := s.GetPost(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostCache(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePost(ctx, testEntry("one", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Go")))

	c := NewPostCache(s, time.Hour)
	posts, err := c.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	// Writes are invisible until the cache is invalidated.
	require.NoError(t, s.SavePost(ctx, testEntry("two", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))))
	posts, err = c.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	c.Invalidate()
	posts, err = c.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, slugs(posts))

	tagged, err := c.ListPosts(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, slugs(tagged))

	_, err = c.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := c.GetPost(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, "Post two", got.Data.Title)
}

func TestPostCacheTagIndex(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePost(ctx, testEntry("a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Go", "go ", "web")))
	require.NoError(t, s.SavePost(ctx, testEntry("b", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "GO")))

	c := NewPostCache(s, time.Hour)
	tagged, err := c.ListPosts(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, slugs(tagged), "each post is listed once per tag")

	web, err := c.ListPosts(ctx, "WEB")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, slugs(web))

	none, err := c.ListPosts(ctx, "rust")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	tags, err := c.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, tags)
}

func TestPostCacheExpires(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, 20*time.Millisecond)

	posts, err := c.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, s.SavePost(ctx, testEntry("late", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	time.Sleep(40 * time.Millisecond)
	_, err = c.GetPost(ctx, "late")
	assert.NoError(t, err)
}

func TestStoreExtremeDates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	v := schema.New(nil)

	entry := func(slug string, pub schema.Value) Entry {
		data, err := v.Validate(ctx, schema.Record{
			"title":       schema.String("Post " + slug),
			"description": schema.String("About " + slug),
			"pubDate":     pub,
			"tags":        schema.Sequence(),
		})
		require.NoError(t, err)
		e := testEntry(slug, data.PubDate)
		e.Data = data
		return e
	}

	future := entry("future", schema.Number(8e15))
	future.Data.UpdatedDate = schema.Some(time.UnixMilli(8.64e15).UTC())
	_, err := s.Sync(ctx, []Entry{
		entry("ok", schema.String("2024-01-15")),
		future,
		entry("past", schema.Number(-8e15)),
	})
	require.NoError(t, err)

	posts, err := s.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"future", "ok", "past"}, slugs(posts))
	assert.True(t, time.UnixMilli(8e15).Equal(posts[0].Data.PubDate))
	assert.True(t, time.UnixMilli(-8e15).Equal(posts[2].Data.PubDate))
	updated, ok := posts[0].Data.UpdatedDate.Get()
	require.True(t, ok)
	assert.True(t, time.UnixMilli(8.64e15).Equal(updated))

	c := NewPostCache(s, time.Hour)
	got, err := c.GetPost(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, "Post ok", got.Data.Title)
}

func TestStoreReopenKeepsPosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SavePost(context.Background(), testEntry("kept", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.GetPost(context.Background(), "kept")
	assert.NoError(t, err)
}

func slugs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Slug
	}
	return out
}
