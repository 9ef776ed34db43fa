//go:build integration

package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
)

func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("blogicum"),
		postgres.WithUsername("blogicum"),
		postgres.WithPassword("blogicum"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(config.AppConfig{Storage: "postgres", DatabaseURI: dsn, LogLevel: "silent"})
	require.NoError(t, err)
	return store
}

func TestGormStore_VisibilityAndCascades(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	author := &models.User{Username: "author"}
	require.NoError(t, s.CreateUser(ctx, author))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Username: "author"}), storage.ErrDuplicate)

	published := &models.Category{Title: "Travel", Slug: "travel", IsPublished: true}
	hidden := &models.Category{Title: "Drafts", Slug: "drafts", IsPublished: false}
	require.NoError(t, s.CreateCategory(ctx, published))
	require.NoError(t, s.CreateCategory(ctx, hidden))

	mk := func(title string, cat *uint, pub time.Time, isPublished bool) *models.Post {
		p := &models.Post{Title: title, Text: "t", PubDate: pub, IsPublished: isPublished, AuthorID: author.ID, CategoryID: cat}
		require.NoError(t, s.CreatePost(ctx, p))
		return p
	}
	visible := mk("visible", &published.ID, now.Add(-time.Hour), true)
	mk("future", &published.ID, now.Add(time.Hour), true)
	mk("unpublished", &published.ID, now.Add(-time.Hour), false)
	mk("hidden category", &hidden.ID, now.Add(-time.Hour), true)
	mk("no category", nil, now.Add(-time.Hour), true)

	public := storage.PostQuery{PublishedOnly: true, PublishedBefore: &now}
	posts, err := s.ListPosts(ctx, public, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, visible.ID, posts[0].ID)
	assert.Equal(t, "author", posts[0].Author.Username)

	total, err := s.CountPosts(ctx, storage.PostQuery{AuthorID: &author.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	require.NoError(t, s.CreateComment(ctx, &models.Comment{Text: "hi", PostID: visible.ID, AuthorID: author.ID, CreatedAt: now}))
	counts, err := s.CountComments(ctx, []uint{visible.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[visible.ID])

	require.NoError(t, s.DeleteCategory(ctx, published.ID))
	got, err := s.GetPostByID(ctx, visible.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	require.NoError(t, s.DeleteUser(ctx, author.ID))
	_, err = s.GetPostByID(ctx, visible.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	comments, err := s.ListComments(ctx, visible.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
