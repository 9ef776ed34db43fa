package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *Store
	author   *models.User
	category *models.Category
	location *models.Location
}

// newFixture creates a store with one author, one published category and one location.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := New()
	author := &models.User{Username: "author"}
	require.NoError(t, s.CreateUser(ctx, author))
	cat := &models.Category{Title: "Travel", Slug: "travel", IsPublished: true}
	require.NoError(t, s.CreateCategory(ctx, cat))
	loc := &models.Location{Name: "Island", IsPublished: true}
	require.NoError(t, s.CreateLocation(ctx, loc))
	return fixture{store: s, author: author, category: cat, location: loc}
}

func (f fixture) post(t *testing.T, title string, pub time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:       title,
		Text:        "text",
		PubDate:     pub,
		IsPublished: true,
		AuthorID:    f.author.ID,
		CategoryID:  &f.category.ID,
		LocationID:  &f.location.ID,
	}
	require.NoError(t, f.store.CreatePost(context.Background(), p))
	return p
}

func TestStore_UsernameIsUnique(t *testing.T) {
	f := newFixture(t)
	err := f.store.CreateUser(context.Background(), &models.User{Username: "author"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestStore_GetPostResolvesRelations(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, "First", time.Now().Add(-time.Hour))

	got, err := f.store.GetPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "author", got.Author.Username)
	require.NotNil(t, got.Category)
	assert.Equal(t, "travel", got.Category.Slug)
	require.NotNil(t, got.Location)

	_, err = f.store.GetPostByID(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ListPostsNewestFirstWithTieBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older := f.post(t, "older", base.Add(-time.Hour))
	tieA := f.post(t, "tieA", base)
	tieB := f.post(t, "tieB", base)

	posts, err := f.store.ListPosts(ctx, storage.PostQuery{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []uint{tieB.ID, tieA.ID, older.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})

	page, err := f.store.ListPosts(ctx, storage.PostQuery{}, 2, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)
}

func TestStore_PublishedQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	visible := f.post(t, "visible", now.Add(-time.Minute))
	f.post(t, "future", now.Add(time.Hour))
	hidden := f.post(t, "hidden", now.Add(-time.Minute))
	hidden.IsPublished = false
	require.NoError(t, f.store.UpdatePost(ctx, hidden))
	orphan := &models.Post{Title: "no category", PubDate: now.Add(-time.Minute), IsPublished: true, AuthorID: f.author.ID}
	require.NoError(t, f.store.CreatePost(ctx, orphan))

	q := storage.PostQuery{PublishedOnly: true, PublishedBefore: &now}
	posts, err := f.store.ListPosts(ctx, q, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, visible.ID, posts[0].ID)

	total, err := f.store.CountPosts(ctx, storage.PostQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestStore_UpdatePostKeepsAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &models.User{Username: "other"}
	require.NoError(t, f.store.CreateUser(ctx, other))
	p := f.post(t, "mine", time.Now())

	p.AuthorID = other.ID
	p.Title = "renamed"
	require.NoError(t, f.store.UpdatePost(ctx, p))

	got, err := f.store.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, f.author.ID, got.AuthorID)
}

func TestStore_DeleteCategoryNullsPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "tagged", time.Now())

	require.NoError(t, f.store.DeleteCategory(ctx, f.category.ID))

	got, err := f.store.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
}

func TestStore_DeleteLocationNullsPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "placed", time.Now())

	require.NoError(t, f.store.DeleteLocation(ctx, f.location.ID))

	got, err := f.store.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LocationID)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := &models.User{Username: "reader"}
	require.NoError(t, f.store.CreateUser(ctx, reader))
	p := f.post(t, "doomed", time.Now())
	require.NoError(t, f.store.CreateComment(ctx, &models.Comment{Text: "hi", PostID: p.ID, AuthorID: reader.ID}))

	require.NoError(t, f.store.DeleteUser(ctx, f.author.ID))

	_, err := f.store.GetPostByID(ctx, p.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	counts, err := f.store.CountComments(ctx, []uint{p.ID})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestStore_CommentsOrderingAndScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "discussed", time.Now())
	other := f.post(t, "quiet", time.Now())
	base := time.Now()

	second := &models.Comment{Text: "second", PostID: p.ID, AuthorID: f.author.ID, CreatedAt: base.Add(time.Minute)}
	first := &models.Comment{Text: "first", PostID: p.ID, AuthorID: f.author.ID, CreatedAt: base}
	require.NoError(t, f.store.CreateComment(ctx, second))
	require.NoError(t, f.store.CreateComment(ctx, first))

	comments, err := f.store.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "author", comments[0].Author.Username)

	_, err = f.store.GetComment(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	counts, err := f.store.CountComments(ctx, []uint{p.ID, other.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[p.ID])
	assert.Zero(t, counts[other.ID])

	require.NoError(t, f.store.DeletePost(ctx, p.ID))
	_, err = f.store.GetComment(ctx, p.ID, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
