package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage/inmemory"
)

type env struct {
	store    *inmemory.Store
	posts    *PostService
	comments *CommentService
	users    *UserService
	author   *models.User
	reader   *models.User
	travel   *models.Category
	hidden   *models.Category
	island   *models.Location
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := inmemory.New()
	clock := func() time.Time { return fixedNow }
	e := &env{store: store}
	e.posts = NewPostService(store, 10, clock)
	e.comments = NewCommentService(store, e.posts, clock)
	e.users = NewUserService(store)

	e.author = &models.User{Username: "author"}
	e.reader = &models.User{Username: "reader"}
	require.NoError(t, store.CreateUser(ctx, e.author))
	require.NoError(t, store.CreateUser(ctx, e.reader))
	e.travel = &models.Category{Title: "Travel", Slug: "travel", IsPublished: true}
	e.hidden = &models.Category{Title: "Hidden", Slug: "hidden", IsPublished: false}
	require.NoError(t, store.CreateCategory(ctx, e.travel))
	require.NoError(t, store.CreateCategory(ctx, e.hidden))
	e.island = &models.Location{Name: "Island", IsPublished: true}
	require.NoError(t, store.CreateLocation(ctx, e.island))
	return e
}

// seed stores a post directly, bypassing form validation.
func (e *env) seed(t *testing.T, title string, pub time.Time, published bool, cat *models.Category) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Text: "body", PubDate: pub, IsPublished: published, AuthorID: e.author.ID}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	require.NoError(t, e.store.CreatePost(context.Background(), p))
	return p
}

func validForm(e *env) PostForm {
	return PostForm{
		Title:       "Hello",
		Text:        "World",
		PubDate:     "2024-04-30T10:00",
		CategoryID:  &e.travel.ID,
		LocationID:  &e.island.ID,
		IsPublished: true,
	}
}

func TestPostService_IndexShowsOnlyPublicPosts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	visible := e.seed(t, "visible", fixedNow.Add(-time.Hour), true, e.travel)
	e.seed(t, "draft", fixedNow.Add(-time.Hour), false, e.travel)
	e.seed(t, "future", fixedNow.Add(time.Hour), true, e.travel)
	e.seed(t, "hidden category", fixedNow.Add(-time.Hour), true, e.hidden)
	e.seed(t, "no category", fixedNow.Add(-time.Hour), true, nil)
	require.NoError(t, e.store.CreateComment(ctx, &models.Comment{Text: "c", PostID: visible.ID, AuthorID: e.reader.ID}))

	listing, err := e.posts.Index(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listing.Posts, 1)
	assert.Equal(t, visible.ID, listing.Posts[0].ID)
	assert.EqualValues(t, 1, listing.Posts[0].CommentCount)
	assert.EqualValues(t, 1, listing.Page.Total)
}

func TestPostService_IndexPaginationClamps(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 25; i++ {
		e.seed(t, fmt.Sprintf("post %d", i), fixedNow.Add(-time.Duration(i+1)*time.Minute), true, e.travel)
	}
	listing, err := e.posts.Index(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 3, listing.Page.Number)
	assert.Len(t, listing.Posts, 5)
	assert.Equal(t, "post 24", listing.Posts[4].Title)

	first, err := e.posts.Index(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page.Number)
	assert.Equal(t, "post 0", first.Posts[0].Title)
}

func TestPostService_Category(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "tagged", fixedNow.Add(-time.Hour), true, e.travel)

	cat, listing, err := e.posts.Category(ctx, "travel", 1)
	require.NoError(t, err)
	assert.Equal(t, "Travel", cat.Title)
	assert.Len(t, listing.Posts, 1)

	_, _, err = e.posts.Category(ctx, "hidden", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = e.posts.Category(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_ProfileDependsOnViewer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, "public", fixedNow.Add(-time.Hour), true, e.travel)
	e.seed(t, "draft", fixedNow.Add(-time.Hour), false, e.travel)
	e.seed(t, "scheduled", fixedNow.Add(time.Hour), true, e.travel)

	_, own, err := e.posts.Profile(ctx, "author", e.author, 1)
	require.NoError(t, err)
	assert.Len(t, own.Posts, 3)
	assert.Equal(t, "scheduled", own.Posts[0].Title)

	_, other, err := e.posts.Profile(ctx, "author", e.reader, 1)
	require.NoError(t, err)
	assert.Len(t, other.Posts, 1)

	_, anon, err := e.posts.Profile(ctx, "author", nil, 1)
	require.NoError(t, err)
	assert.Len(t, anon.Posts, 1)

	_, _, err = e.posts.Profile(ctx, "ghost", nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_DetailVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	draft := e.seed(t, "draft", fixedNow.Add(-time.Hour), false, e.travel)

	_, err := e.posts.Detail(ctx, draft.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.posts.Detail(ctx, draft.ID, e.reader)
	assert.ErrorIs(t, err, ErrNotFound)

	detail, err := e.posts.Detail(ctx, draft.ID, e.author)
	require.NoError(t, err)
	assert.Equal(t, "draft", detail.Post.Title)
	assert.Empty(t, detail.Comments)

	_, err = e.posts.Detail(ctx, 9999, e.author)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_CreateForcesAuthor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	post, err := e.posts.Create(ctx, e.reader, validForm(e))
	require.NoError(t, err)
	assert.Equal(t, e.reader.ID, post.AuthorID)
	assert.Equal(t, time.Date(2024, 4, 30, 10, 0, 0, 0, time.UTC), post.PubDate)

	_, err = e.posts.Create(ctx, nil, validForm(e))
	assert.ErrorIs(t, err, ErrAnonymous)
}

func TestPostService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	form := validForm(e)
	form.Title = ""
	form.PubDate = "yesterday"
	bogus := uint(4242)
	form.CategoryID = &bogus

	_, err := e.posts.Create(context.Background(), e.author, form)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "pub_date")
	assert.Contains(t, ve.Fields, "category")

	total, err := e.store.CountPosts(context.Background(), WithAuthor(PublicQuery(fixedNow), e.author.ID))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPostService_UpdateByNonOwnerLeavesPostUnchanged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.seed(t, "original", fixedNow.Add(-time.Hour), true, e.travel)

	form := validForm(e)
	form.Title = "hijacked"
	_, err := e.posts.Update(ctx, post.ID, e.reader, form)
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := e.store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)

	updated, err := e.posts.Update(ctx, post.ID, e.author, form)
	require.NoError(t, err)
	assert.Equal(t, "hijacked", updated.Title)
	assert.Equal(t, e.author.ID, updated.AuthorID)
}

func TestPostService_UpdateKeepsImageUnlessCleared(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.seed(t, "pic", fixedNow.Add(-time.Hour), true, e.travel)
	post.Image = "posts_images/a.png"
	require.NoError(t, e.store.UpdatePost(ctx, post))

	updated, err := e.posts.Update(ctx, post.ID, e.author, validForm(e))
	require.NoError(t, err)
	assert.Equal(t, "posts_images/a.png", updated.Image)

	form := validForm(e)
	form.ClearImage = true
	updated, err = e.posts.Update(ctx, post.ID, e.author, form)
	require.NoError(t, err)
	assert.Empty(t, updated.Image)
}

func TestPostService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.seed(t, "bye", fixedNow.Add(-time.Hour), true, e.travel)

	_, err := e.posts.Delete(ctx, post.ID, e.reader)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = e.posts.Delete(ctx, post.ID, nil)
	assert.ErrorIs(t, err, ErrAnonymous)

	_, err = e.posts.Delete(ctx, post.ID, e.author)
	require.NoError(t, err)
	_, err = e.posts.Detail(ctx, post.ID, e.author)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentService_AddRequiresVisiblePost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	public := e.seed(t, "public", fixedNow.Add(-time.Hour), true, e.travel)
	draft := e.seed(t, "draft", fixedNow.Add(-time.Hour), false, e.travel)

	c, err := e.comments.Add(ctx, public.ID, e.reader, CommentForm{Text: "nice"})
	require.NoError(t, err)
	assert.Equal(t, e.reader.ID, c.AuthorID)
	assert.Equal(t, fixedNow, c.CreatedAt)

	_, err = e.comments.Add(ctx, draft.ID, e.reader, CommentForm{Text: "sneaky"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.comments.Add(ctx, public.ID, nil, CommentForm{Text: "anon"})
	assert.ErrorIs(t, err, ErrAnonymous)

	_, err = e.comments.Add(ctx, public.ID, e.reader, CommentForm{Text: "   "})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "text")

	detail, err := e.posts.Detail(ctx, public.ID, nil)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "reader", detail.Comments[0].Author.Username)
}

func TestCommentService_EditAndDeleteGuarded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.seed(t, "public", fixedNow.Add(-time.Hour), true, e.travel)
	other := e.seed(t, "other", fixedNow.Add(-time.Hour), true, e.travel)
	c, err := e.comments.Add(ctx, post.ID, e.reader, CommentForm{Text: "first"})
	require.NoError(t, err)

	_, err = e.comments.Update(ctx, post.ID, c.ID, e.author, CommentForm{Text: "edited by author"})
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = e.comments.Update(ctx, other.ID, c.ID, e.reader, CommentForm{Text: "wrong post"})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := e.comments.Update(ctx, post.ID, c.ID, e.reader, CommentForm{Text: "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", updated.Text)
	assert.Equal(t, e.reader.ID, updated.AuthorID)

	_, err = e.comments.Delete(ctx, post.ID, c.ID, e.author)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = e.comments.Delete(ctx, post.ID, c.ID, e.reader)
	require.NoError(t, err)
	_, err = e.comments.Owned(ctx, post.ID, c.ID, e.reader)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, RegistrationForm{Username: "newbie", Password1: "s3cretpass", Password2: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)

	_, err = e.users.Register(ctx, RegistrationForm{Username: "newbie", Password1: "s3cretpass", Password2: "s3cretpass"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, msgUsernameTaken, ve.Fields["username"])

	_, err = e.users.Register(ctx, RegistrationForm{Username: "other", Password1: "s3cretpass", Password2: "different1"})
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "password2")

	got, err := e.users.Authenticate(ctx, LoginForm{Username: "newbie", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = e.users.Authenticate(ctx, LoginForm{Username: "newbie", Password: "wrong"})
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, NonFieldErrors)

	_, err = e.users.Authenticate(ctx, LoginForm{Username: "nobody", Password: "wrong"})
	_, ok = AsValidation(err)
	assert.True(t, ok)
}

func TestUserService_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.UpdateProfile(ctx, e.reader, ProfileForm{Username: "author"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, msgUsernameTaken, ve.Fields["username"])

	_, err = e.users.UpdateProfile(ctx, e.reader, ProfileForm{Username: "reader", Email: "not-an-email"})
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "email")

	u, err := e.users.UpdateProfile(ctx, e.reader, ProfileForm{Username: "reader2", FirstName: "Ada", LastName: "L", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "reader2", u.Username)
	assert.Equal(t, "Ada L", u.FullName())
}

func TestUserService_LoginWithProvider(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.LoginWithProvider(ctx, "github", "42", "author", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "author2", u.Username)

	again, err := e.users.LoginWithProvider(ctx, "github", "42", "author", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestPostService_TextIsStoredAsSubmitted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	form := validForm(e)
	form.Text = "Fish & chips < 5 quid\n<b>bold</b>"

	created, err := e.posts.Create(ctx, e.author, form)
	require.NoError(t, err)
	got, err := e.store.GetPostByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Text, got.Text)
	assert.Equal(t, form.Text, e.posts.EditForm(got).Text)
}

func TestPostService_EditFormKeepsPubDateInNonUTCZone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	plus3 := time.FixedZone("UTC+3", 3*60*60)
	posts := NewPostService(e.store, 10, func() time.Time { return fixedNow.In(plus3) })

	form := validForm(e)
	form.PubDate = "2024-04-30T12:00"
	created, err := posts.Create(ctx, e.author, form)
	require.NoError(t, err)
	assert.True(t, created.PubDate.Equal(time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)))

	// A value read back in UTC, as the SQL drivers return it.
	stored, err := e.store.GetPostByID(ctx, created.ID)
	require.NoError(t, err)
	stored.PubDate = stored.PubDate.UTC()

	edit := posts.EditForm(stored)
	assert.Equal(t, "2024-04-30T12:00", edit.PubDate)

	updated, err := posts.Update(ctx, created.ID, e.author, edit)
	require.NoError(t, err)
	assert.True(t, updated.PubDate.Equal(created.PubDate), "pub_date moved to %s", updated.PubDate)
}
